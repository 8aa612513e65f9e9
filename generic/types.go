/*
Package generic provides the core vacation entitlement engine.

PURPOSE:
  This package contains the pure computations behind every vacation balance:
  anniversary periods, usage accumulation, allocation of new debits and
  credits, and business-day counting. Nothing here touches storage or HTTP.
  Balances are always recomputed from the hire date and request history,
  never read from a stored running total.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of days backed by decimal.Decimal
  - Unit: The unit of an Amount (always days for vacation entitlements)

DESIGN PRINCIPLES:
  1. Purity: Same inputs always produce the same periods and balances
  2. Precision: Uses decimal.Decimal to avoid floating-point drift
  3. Ordering: Splits are ordered lists, labels are a presentation concern

USAGE:
  days := generic.NewAmountFromInt(5, generic.UnitDays)
  periods := generic.PeriodGenerator{Schedule: schedule}.Generate(hire, today)
  balances := generic.UsageAccumulator{EnforceExpiry: true}.Accumulate(periods, grants, usages)
  alloc := generic.Allocate(balances, days, generic.ModeDebit, today)

SEE ALSO:
  - period.go: Anniversary period generation
  - balance.go: Usage accumulation per period
  - allocation.go: Debit and credit allocation
  - workdays.go: Business-day counting
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays Unit = "days"
)

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// Days is shorthand for a whole number of days.
func Days(n int) Amount { return NewAmountFromInt(n, UnitDays) }

// ZeroDays returns an empty day amount.
func ZeroDays() Amount { return Amount{Value: decimal.Zero, Unit: UnitDays} }

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.unit(b)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.unit(b)} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) Int() int                     { return int(a.Value.IntPart()) }
func (a Amount) String() string               { return a.Value.String() }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// NonNegative clamps negative amounts to zero.
func (a Amount) NonNegative() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}

// unit keeps the unit of whichever operand has one, so a zero-value Amount
// can be used as an accumulator.
func (a Amount) unit(b Amount) Unit {
	if a.Unit != "" {
		return a.Unit
	}
	return b.Unit
}

// SumAmounts adds amounts together, returning zero days for an empty input.
func SumAmounts(amounts ...Amount) Amount {
	total := ZeroDays()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
