/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy definitions into timeoff.Policy values. The
  seniority table, the first-year rule and the validity window are HR
  configuration, so they live in a file rather than in code.

JSON SCHEMA:
  {
    "id": "vacation-2024",
    "name": "Vacation 2024",
    "validity_months": 18,
    "min_tenure_months": 6,
    "enforce_expiry": true,
    "reminder_lead_months": 2,
    "seniority": {
      "table": "custom",
      "tiers": [
        {"from_year": 0, "days": 12},
        {"from_year": 1, "days": 14},
        {"from_year": 5, "days": 20}
      ]
    },
    "first_year": {"rule": "prorata", "cap": 12}
  }

  seniority.table: classic | reform | custom (tiers required)
  first_year.rule: prorata | step | table

DEFAULTS:
  Missing fields fall back to timeoff.DefaultPolicy(). enforce_expiry is a
  pointer so an explicit false is kept.

USAGE:
  factory := NewPolicyFactory()
  policy, err := factory.LoadFile("policy.json")

SEE ALSO:
  - timeoff/policies.go: Go-based presets
  - timeoff/accrual.go: Seniority tables and first-year rules
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/timeoff"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a vacation policy.
type PolicyJSON struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	ValidityMonths     int            `json:"validity_months,omitempty"`
	MinTenureMonths    *int           `json:"min_tenure_months,omitempty"`
	EnforceExpiry      *bool          `json:"enforce_expiry,omitempty"`
	ReminderLeadMonths *int           `json:"reminder_lead_months,omitempty"`
	Seniority          *SeniorityJSON `json:"seniority,omitempty"`
	FirstYear          *FirstYearJSON `json:"first_year,omitempty"`
}

// SeniorityJSON selects or defines the seniority table.
type SeniorityJSON struct {
	Table string     `json:"table"` // classic, reform, custom
	Tiers []TierJSON `json:"tiers,omitempty"`
}

// TierJSON is one row of a custom seniority table.
type TierJSON struct {
	FromYear int `json:"from_year"`
	Days     int `json:"days"`
}

// FirstYearJSON selects the rule for the period opened on the hire date.
type FirstYearJSON struct {
	Rule string `json:"rule"` // prorata, step, table
	Cap  int    `json:"cap,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to Go structs.
type PolicyFactory struct{}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// LoadFile reads and parses a policy file.
func (f *PolicyFactory) LoadFile(path string) (timeoff.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return timeoff.Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return f.ParsePolicy(string(data))
}

// ParsePolicy parses a JSON string into a Policy.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (timeoff.Policy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return timeoff.Policy{}, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts PolicyJSON to a validated timeoff.Policy.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (timeoff.Policy, error) {
	policy := timeoff.DefaultPolicy()
	if pj.ID != "" {
		policy.ID = pj.ID
	}
	if pj.Name != "" {
		policy.Name = pj.Name
	}
	if pj.ValidityMonths != 0 {
		policy.ValidityMonths = pj.ValidityMonths
	}
	if pj.MinTenureMonths != nil {
		policy.MinTenureMonths = *pj.MinTenureMonths
	}
	if pj.EnforceExpiry != nil {
		policy.EnforceExpiry = *pj.EnforceExpiry
	}
	if pj.ReminderLeadMonths != nil {
		policy.ReminderLeadMonths = *pj.ReminderLeadMonths
	}

	if pj.Seniority != nil {
		table, err := parseSeniority(*pj.Seniority)
		if err != nil {
			return timeoff.Policy{}, err
		}
		policy.Entitlement.Seniority = table
	}

	if pj.FirstYear != nil {
		rule, err := parseFirstYear(*pj.FirstYear, policy.Entitlement.Seniority)
		if err != nil {
			return timeoff.Policy{}, err
		}
		policy.Entitlement.FirstYear = rule
	}

	if err := policy.Validate(); err != nil {
		return timeoff.Policy{}, err
	}
	return policy, nil
}

// ToJSON converts a Policy back to its JSON form. Only the preset and tiered
// tables and the known first-year rules round-trip.
func (f *PolicyFactory) ToJSON(policy timeoff.Policy) PolicyJSON {
	minTenure := policy.MinTenureMonths
	enforce := policy.EnforceExpiry
	lead := policy.ReminderLeadMonths

	pj := PolicyJSON{
		ID:                 policy.ID,
		Name:               policy.Name,
		ValidityMonths:     policy.ValidityMonths,
		MinTenureMonths:    &minTenure,
		EnforceExpiry:      &enforce,
		ReminderLeadMonths: &lead,
	}

	switch t := policy.Entitlement.Seniority.(type) {
	case timeoff.ClassicSeniority:
		pj.Seniority = &SeniorityJSON{Table: "classic"}
	case timeoff.ReformSeniority:
		pj.Seniority = &SeniorityJSON{Table: "reform"}
	case timeoff.TieredSeniority:
		sj := &SeniorityJSON{Table: "custom"}
		for _, tier := range t.Tiers {
			sj.Tiers = append(sj.Tiers, TierJSON{FromYear: tier.FromYear, Days: tier.Days})
		}
		pj.Seniority = sj
	}

	switch r := policy.Entitlement.FirstYear.(type) {
	case timeoff.MonthlyProRata:
		pj.FirstYear = &FirstYearJSON{Rule: "prorata", Cap: r.Cap}
	case timeoff.SixMonthStep:
		pj.FirstYear = &FirstYearJSON{Rule: "step"}
	case timeoff.TableFirstYear:
		pj.FirstYear = &FirstYearJSON{Rule: "table"}
	}

	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseSeniority(sj SeniorityJSON) (timeoff.SeniorityTable, error) {
	switch sj.Table {
	case "", "classic":
		return timeoff.ClassicSeniority{}, nil
	case "reform":
		return timeoff.ReformSeniority{}, nil
	case "custom":
		if len(sj.Tiers) == 0 {
			return nil, &generic.InvalidInputError{Field: "seniority.tiers", Reason: "a custom table needs at least one tier"}
		}
		tiers := make([]timeoff.Tier, 0, len(sj.Tiers))
		seen := make(map[int]bool, len(sj.Tiers))
		for _, tj := range sj.Tiers {
			if tj.FromYear < 0 || tj.Days < 0 {
				return nil, &generic.InvalidInputError{Field: "seniority.tiers", Reason: "from_year and days must not be negative"}
			}
			if seen[tj.FromYear] {
				return nil, &generic.InvalidInputError{Field: "seniority.tiers", Reason: fmt.Sprintf("duplicate tier for year %d", tj.FromYear)}
			}
			seen[tj.FromYear] = true
			tiers = append(tiers, timeoff.Tier{FromYear: tj.FromYear, Days: tj.Days})
		}
		return timeoff.NewTieredSeniority(tiers), nil
	default:
		return nil, &generic.InvalidInputError{Field: "seniority.table", Reason: fmt.Sprintf("unknown table %q", sj.Table)}
	}
}

func parseFirstYear(fj FirstYearJSON, table timeoff.SeniorityTable) (timeoff.FirstYearRule, error) {
	switch fj.Rule {
	case "", "prorata":
		if fj.Cap < 0 {
			return nil, &generic.InvalidInputError{Field: "first_year.cap", Reason: "must not be negative"}
		}
		return timeoff.MonthlyProRata{Cap: fj.Cap}, nil
	case "step":
		return timeoff.SixMonthStep{}, nil
	case "table":
		return timeoff.TableFirstYear{Table: table}, nil
	default:
		return nil, &generic.InvalidInputError{Field: "first_year.rule", Reason: fmt.Sprintf("unknown rule %q", fj.Rule)}
	}
}
