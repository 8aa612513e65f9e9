/*
accrual.go - Seniority schedules for vacation entitlements

PURPOSE:
  Implements generic.EntitlementSchedule for vacation days. The schedule is
  data, not code paths: a seniority table answers "how many days does
  anniversary year N enable" and a first-year rule answers the same for the
  period that opens on the hire date.

SENIORITY TABLES (N = completed years at the period start):
  ClassicSeniority:
    N = 1..4  -> 12 + 2N            (14, 16, 18, 20)
    N >= 5    -> 20 + 2*((N-5)/5)   (20 for 5-9, 22 for 10-14, ...)

  ReformSeniority:
    N <= 1    -> 12
    N = 2..5  -> 10 + 2N            (14, 16, 18, 20)
    N >= 6    -> 22 + 2*((N-6)/5)   (22 for 6-10, 24 for 11-15, ...)

  TieredSeniority:
    Explicit [{FromYear, Days}] rows loaded from policy JSON.

FIRST-YEAR RULES (period 0):
  MonthlyProRata: 1 day per full month employed, capped (default 12)
  SixMonthStep:   0 before 6 months, 6 from 6 months, 12 from 12 months
  TableFirstYear: the seniority table's value for N = 0

EXAMPLE:
  ent := Entitlement{Seniority: ClassicSeniority{}, FirstYear: MonthlyProRata{}}
  gen := generic.PeriodGenerator{Schedule: ent}
  periods := gen.Generate(hire, today)

SEE ALSO:
  - generic/accrual.go: EntitlementSchedule interface
  - policies.go: Preset policies combining table + first-year rule
  - factory/policy.go: JSON policy definitions
*/
package timeoff

import (
	"sort"

	"github.com/warp/vacation-engine/generic"
)

// =============================================================================
// SENIORITY TABLES
// =============================================================================

// SeniorityTable maps completed years of service to enabled days.
type SeniorityTable interface {
	DaysForYear(n int) int
}

// ClassicSeniority is the original two-days-per-year table.
type ClassicSeniority struct{}

func (ClassicSeniority) DaysForYear(n int) int {
	switch {
	case n <= 0:
		return 12
	case n <= 4:
		return 12 + 2*n
	default:
		return 20 + 2*((n-5)/5)
	}
}

// ReformSeniority is the later table starting at 12 days for the first year.
type ReformSeniority struct{}

func (ReformSeniority) DaysForYear(n int) int {
	switch {
	case n <= 1:
		return 12
	case n <= 5:
		return 10 + 2*n
	default:
		return 22 + 2*((n-6)/5)
	}
}

// Tier is one row of a configurable seniority table.
type Tier struct {
	FromYear int
	Days     int
}

// TieredSeniority applies the last tier whose FromYear <= n.
type TieredSeniority struct {
	Tiers []Tier
}

// NewTieredSeniority sorts the tiers by FromYear.
func NewTieredSeniority(tiers []Tier) TieredSeniority {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FromYear < sorted[j].FromYear })
	return TieredSeniority{Tiers: sorted}
}

func (t TieredSeniority) DaysForYear(n int) int {
	days := 0
	for _, tier := range t.Tiers {
		if tier.FromYear > n {
			break
		}
		days = tier.Days
	}
	return days
}

// =============================================================================
// FIRST-YEAR RULES
// =============================================================================

// FirstYearRule decides the enabled days of the period opened on the hire date.
type FirstYearRule interface {
	FirstYearDays(hire, asOf generic.TimePoint) int
}

// MonthlyProRata grants one day per full month employed.
type MonthlyProRata struct {
	Cap int // defaults to 12
}

func (r MonthlyProRata) FirstYearDays(hire, asOf generic.TimePoint) int {
	limit := r.Cap
	if limit <= 0 {
		limit = 12
	}
	months := generic.MonthsBetween(hire, asOf)
	if months > limit {
		return limit
	}
	return months
}

// SixMonthStep grants 6 days at six months and 12 at the first anniversary.
type SixMonthStep struct{}

func (SixMonthStep) FirstYearDays(hire, asOf generic.TimePoint) int {
	months := generic.MonthsBetween(hire, asOf)
	switch {
	case months >= 12:
		return 12
	case months >= 6:
		return 6
	default:
		return 0
	}
}

// TableFirstYear enables the seniority table's year-0 value on the hire date.
type TableFirstYear struct {
	Table SeniorityTable
}

func (r TableFirstYear) FirstYearDays(_, _ generic.TimePoint) int {
	if r.Table == nil {
		return 0
	}
	return r.Table.DaysForYear(0)
}

// =============================================================================
// ENTITLEMENT - generic.EntitlementSchedule implementation
// =============================================================================

// Entitlement combines a seniority table with a first-year rule.
type Entitlement struct {
	Seniority SeniorityTable
	FirstYear FirstYearRule
}

var _ generic.EntitlementSchedule = Entitlement{}

func (e Entitlement) EnabledDays(index int, hire, start, asOf generic.TimePoint) generic.Amount {
	if index == 0 && e.FirstYear != nil {
		return generic.Days(e.FirstYear.FirstYearDays(hire, asOf))
	}
	if e.Seniority == nil {
		return generic.ZeroDays()
	}
	return generic.Days(e.Seniority.DaysForYear(index))
}
