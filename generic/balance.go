/*
balance.go - Per-period usage accumulation

PURPOSE:
  Turns a list of periods plus the approved request history into the
  consumed and available days of each period. This is the only place a
  balance is computed; nothing stores a running total.

ACCUMULATION RULES:
  Grants (admin credits):
    Raise the capacity of the period whose start date they were booked
    against. A grant for a period that is no longer materialized is ignored.

  Usages (approved requests and admin debits):
    Processed in reference-time order. Each walks periods oldest to newest
    and takes min(remaining capacity, remaining days) from each.

  Expiry check:
    With EnforceExpiry, a usage skips periods whose expiry is before the
    usage's reference time, so a late request cannot draw on a window that
    had already closed when it was approved.

EXAMPLE:
  Periods [12, 14, 16], one usage of 20 days:
    period 0: consumed 12, available 0
    period 1: consumed 8,  available 6
    period 2: consumed 0,  available 16

SEE ALSO:
  - period.go: Produces the periods
  - allocation.go: Consumes the balances for new operations
*/
package generic

import "sort"

// Usage is one approved debit against the balance.
type Usage struct {
	Ref         string
	Days        Amount
	ReferenceAt TimePoint // approval date, else submission date, else requested start
}

// Grant is one approved credit booked against a specific period.
type Grant struct {
	Ref         string
	Days        Amount
	PeriodStart TimePoint
}

// PeriodBalance is the computed state of one period.
type PeriodBalance struct {
	Period   Period
	Credited Amount
	Consumed Amount
}

// Capacity is the enabled days plus admin credits.
func (pb PeriodBalance) Capacity() Amount {
	return pb.Period.EnabledDays.Add(pb.Credited)
}

// Available is the unconsumed capacity, never negative.
func (pb PeriodBalance) Available() Amount {
	return pb.Capacity().Sub(pb.Consumed).NonNegative()
}

// Balances is aligned with the period list it was computed from.
type Balances []PeriodBalance

// TotalAvailable sums available days across every period.
func (b Balances) TotalAvailable() Amount {
	total := ZeroDays()
	for _, pb := range b {
		total = total.Add(pb.Available())
	}
	return total
}

// TotalCapacity sums enabled and credited days across every period.
func (b Balances) TotalCapacity() Amount {
	total := ZeroDays()
	for _, pb := range b {
		total = total.Add(pb.Capacity())
	}
	return total
}

// TotalConsumed sums consumed days across every period.
func (b Balances) TotalConsumed() Amount {
	total := ZeroDays()
	for _, pb := range b {
		total = total.Add(pb.Consumed)
	}
	return total
}

// Periods returns the periods in balance order.
func (b Balances) Periods() []Period {
	out := make([]Period, len(b))
	for i, pb := range b {
		out[i] = pb.Period
	}
	return out
}

// Live drops the periods that expired before asOf.
func (b Balances) Live(asOf TimePoint) Balances {
	var live Balances
	for _, pb := range b {
		if !pb.Period.ExpiredAt(asOf) {
			live = append(live, pb)
		}
	}
	return live
}

// =============================================================================
// USAGE ACCUMULATOR
// =============================================================================

// UsageAccumulator distributes approved history across periods.
type UsageAccumulator struct {
	EnforceExpiry bool
}

// Accumulate returns one PeriodBalance per period, in the same order.
// Usage beyond the total capacity is dropped: the result never shows a
// period consuming more than its capacity.
func (ua UsageAccumulator) Accumulate(periods []Period, grants []Grant, usages []Usage) Balances {
	balances := make(Balances, len(periods))
	for i, p := range periods {
		balances[i] = PeriodBalance{Period: p, Credited: ZeroDays(), Consumed: ZeroDays()}
	}

	for _, g := range grants {
		if !g.Days.IsPositive() {
			continue
		}
		if i := FindPeriod(periods, g.PeriodStart); i >= 0 {
			balances[i].Credited = balances[i].Credited.Add(g.Days)
		}
	}

	ordered := make([]Usage, len(usages))
	copy(ordered, usages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReferenceAt.Before(ordered[j].ReferenceAt)
	})

	for _, u := range ordered {
		remaining := u.Days
		for i := range balances {
			if !remaining.IsPositive() {
				break
			}
			if ua.EnforceExpiry && !u.ReferenceAt.IsZero() && balances[i].Period.ExpiredAt(u.ReferenceAt) {
				continue
			}
			available := balances[i].Available()
			if !available.IsPositive() {
				continue
			}
			take := remaining.Min(available)
			balances[i].Consumed = balances[i].Consumed.Add(take)
			remaining = remaining.Sub(take)
		}
	}

	return balances
}
