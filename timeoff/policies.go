/*
policies.go - Vacation policy configuration

PURPOSE:
  A Policy bundles everything that decides a balance besides the request
  history: the entitlement schedule, the validity window, the tenure
  required before requesting, the expiry check and the reminder lead time.

AVAILABLE POLICIES:
  DefaultPolicy: classic table, monthly pro-rata first year, 18 month validity
  ReformPolicy:  reform table, days enabled in full on each anniversary

CUSTOMIZATION:
  Policies are usually loaded from JSON through factory.ParsePolicy, which
  accepts either preset table name or explicit tiers.

SEE ALSO:
  - accrual.go: Seniority tables and first-year rules
  - factory/policy.go: JSON-based policy creation
*/
package timeoff

import (
	"github.com/warp/vacation-engine/generic"
)

const (
	DefaultMinTenureMonths    = 6
	DefaultReminderLeadMonths = 2
)

// Policy drives period generation and balance accumulation.
type Policy struct {
	ID                 string
	Name               string
	Entitlement        Entitlement
	ValidityMonths     int
	MinTenureMonths    int
	EnforceExpiry      bool
	ReminderLeadMonths int
}

// DefaultPolicy returns the classic table with a pro-rated first year.
func DefaultPolicy() Policy {
	return Policy{
		ID:   "vacation-classic",
		Name: "Vacation (classic seniority table)",
		Entitlement: Entitlement{
			Seniority: ClassicSeniority{},
			FirstYear: MonthlyProRata{Cap: 12},
		},
		ValidityMonths:     generic.DefaultValidityMonths,
		MinTenureMonths:    DefaultMinTenureMonths,
		EnforceExpiry:      true,
		ReminderLeadMonths: DefaultReminderLeadMonths,
	}
}

// ReformPolicy returns the reform table with days enabled on each anniversary.
func ReformPolicy() Policy {
	p := DefaultPolicy()
	p.ID = "vacation-reform"
	p.Name = "Vacation (reform seniority table)"
	p.Entitlement = Entitlement{
		Seniority: ReformSeniority{},
		FirstYear: TableFirstYear{Table: ReformSeniority{}},
	}
	return p
}

// Generator returns the period generator for this policy.
func (p Policy) Generator() generic.PeriodGenerator {
	return generic.PeriodGenerator{
		Schedule:       p.Entitlement,
		ValidityMonths: p.ValidityMonths,
	}
}

// Accumulator returns the usage accumulator for this policy.
func (p Policy) Accumulator() generic.UsageAccumulator {
	return generic.UsageAccumulator{EnforceExpiry: p.EnforceExpiry}
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	if p.Entitlement.Seniority == nil {
		return &generic.InvalidInputError{Field: "seniority", Reason: "a seniority table is required"}
	}
	if p.ValidityMonths < 0 {
		return &generic.InvalidInputError{Field: "validity_months", Reason: "must not be negative"}
	}
	if p.MinTenureMonths < 0 {
		return &generic.InvalidInputError{Field: "min_tenure_months", Reason: "must not be negative"}
	}
	if p.ReminderLeadMonths < 0 {
		return &generic.InvalidInputError{Field: "reminder_lead_months", Reason: "must not be negative"}
	}
	return nil
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

// Eligibility summarizes whether an employee may request vacation yet.
type Eligibility struct {
	MonthsEmployed    int
	Eligible          bool
	EligibleAt        generic.TimePoint
	DaysUntilEligible int

	detail *generic.NotEligibleError
}

// CheckEligibility compares whole months employed against the policy minimum.
func (p Policy) CheckEligibility(hire, asOf generic.TimePoint) Eligibility {
	detail := generic.NewNotEligible(hire, asOf, p.MinTenureMonths)
	e := Eligibility{
		MonthsEmployed:    detail.MonthsEmployed,
		Eligible:          detail.MonthsEmployed >= p.MinTenureMonths,
		EligibleAt:        detail.EligibleAt,
		DaysUntilEligible: detail.DaysRemaining,
		detail:            detail,
	}
	if e.Eligible {
		e.DaysUntilEligible = 0
	}
	return e
}

// Err returns a NotEligibleError when not eligible, nil otherwise.
func (e Eligibility) Err() error {
	if e.Eligible || e.detail == nil {
		return nil
	}
	return e.detail
}
