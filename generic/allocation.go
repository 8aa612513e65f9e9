/*
allocation.go - Splitting a new debit or credit across periods

PURPOSE:
  Given the computed balances and a number of days, decides which periods a
  new operation touches and how many days each one takes.

MODES:
  Debit (vacation request, admin debit):
    Oldest period first, each limited by its available days. Whatever does
    not fit is returned as Remainder; a positive remainder means the caller
    must reject the operation.

  Credit (admin "add days"):
    The chronologically latest open period receives everything. Credits have
    no ceiling, so the remainder is zero unless no period is open.

INVARIANT:
  sum(Splits[i].Days) + Remainder == Requested

PRESENTATION:
  Splits are an ordered list. The "prior" and "current" labels older clients
  expect are derived from that order by Prior() and Current() and nowhere
  else.

SEE ALSO:
  - balance.go: Produces Balances
  - errors.go: InsufficientBalanceError
*/
package generic

// AllocationMode selects debit or credit semantics.
type AllocationMode string

const (
	ModeDebit  AllocationMode = "debit"
	ModeCredit AllocationMode = "credit"
)

// PeriodSplit is the part of an allocation taken from one period.
type PeriodSplit struct {
	Period Period
	Days   Amount
}

// Allocation describes how a request is split across periods.
type Allocation struct {
	Mode      AllocationMode
	Requested Amount
	Splits    []PeriodSplit
	Remainder Amount
	Available Amount // total available before this allocation
}

// Allocated sums the split days.
func (a Allocation) Allocated() Amount {
	total := ZeroDays()
	for _, s := range a.Splits {
		total = total.Add(s.Days)
	}
	return total
}

// Satisfied reports whether the full request fit.
func (a Allocation) Satisfied() bool {
	return !a.Remainder.IsPositive()
}

// Prior returns the split labelled "prior": the first period a debit drew
// from, or for a credit the one before the current period.
func (a Allocation) Prior() *PeriodSplit {
	switch a.Mode {
	case ModeCredit:
		if len(a.Splits) > 1 {
			return &a.Splits[1]
		}
		return nil
	default:
		if len(a.Splits) > 0 {
			return &a.Splits[0]
		}
		return nil
	}
}

// Current returns the split labelled "current": the second period a debit
// drew from, or the latest open period for a credit.
func (a Allocation) Current() *PeriodSplit {
	switch a.Mode {
	case ModeCredit:
		if len(a.Splits) > 0 {
			return &a.Splits[0]
		}
		return nil
	default:
		if len(a.Splits) > 1 {
			return &a.Splits[1]
		}
		return nil
	}
}

// Allocate splits days across balances. Zero or negative days yield an
// empty allocation with no remainder.
func Allocate(balances Balances, days Amount, mode AllocationMode, asOf TimePoint) Allocation {
	alloc := Allocation{
		Mode:      mode,
		Requested: days,
		Remainder: ZeroDays(),
		Available: balances.TotalAvailable(),
	}
	if !days.IsPositive() {
		return alloc
	}

	if mode == ModeCredit {
		return allocateCredit(alloc, balances, days, asOf)
	}
	return allocateDebit(alloc, balances, days)
}

func allocateDebit(alloc Allocation, balances Balances, days Amount) Allocation {
	remaining := days
	for _, pb := range balances {
		if !remaining.IsPositive() {
			break
		}
		available := pb.Available()
		if !available.IsPositive() {
			continue
		}
		take := remaining.Min(available)
		alloc.Splits = append(alloc.Splits, PeriodSplit{Period: pb.Period, Days: take})
		remaining = remaining.Sub(take)
	}
	alloc.Remainder = remaining
	return alloc
}

func allocateCredit(alloc Allocation, balances Balances, days Amount, asOf TimePoint) Allocation {
	for i := len(balances) - 1; i >= 0; i-- {
		p := balances[i].Period
		if p.ExpiredAt(asOf) {
			continue
		}
		alloc.Splits = []PeriodSplit{{Period: p, Days: days}}
		return alloc
	}
	alloc.Remainder = days
	return alloc
}
