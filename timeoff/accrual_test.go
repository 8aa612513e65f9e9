package timeoff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/timeoff"
)

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

func days(n int) generic.Amount {
	return generic.Days(n)
}

// =============================================================================
// SENIORITY TABLES
// =============================================================================

func TestClassicSeniority(t *testing.T) {
	table := timeoff.ClassicSeniority{}
	cases := map[int]int{0: 12, 1: 14, 2: 16, 3: 18, 4: 20, 5: 20, 9: 20, 10: 22, 14: 22, 15: 24}
	for year, want := range cases {
		assert.Equal(t, want, table.DaysForYear(year), "year %d", year)
	}
}

func TestReformSeniority(t *testing.T) {
	table := timeoff.ReformSeniority{}
	cases := map[int]int{0: 12, 1: 12, 2: 14, 3: 16, 5: 20, 6: 22, 10: 22, 11: 24, 16: 26}
	for year, want := range cases {
		assert.Equal(t, want, table.DaysForYear(year), "year %d", year)
	}
}

func TestReformDiffersFromClassicFromYearOne(t *testing.T) {
	assert.NotEqual(t,
		timeoff.ClassicSeniority{}.DaysForYear(1),
		timeoff.ReformSeniority{}.DaysForYear(1))
}

func TestTieredSeniority_UnsortedTiers(t *testing.T) {
	// GIVEN: Tiers supplied out of order
	// THEN: The last tier whose FromYear <= N applies

	table := timeoff.NewTieredSeniority([]timeoff.Tier{
		{FromYear: 10, Days: 25},
		{FromYear: 0, Days: 15},
		{FromYear: 3, Days: 18},
	})

	assert.Equal(t, 15, table.DaysForYear(2))
	assert.Equal(t, 18, table.DaysForYear(3))
	assert.Equal(t, 18, table.DaysForYear(9))
	assert.Equal(t, 25, table.DaysForYear(12))
}

// =============================================================================
// FIRST-YEAR RULES
// =============================================================================

func TestMonthlyProRata(t *testing.T) {
	hire := date(2024, 1, 15)
	rule := timeoff.MonthlyProRata{}

	assert.Equal(t, 0, rule.FirstYearDays(hire, date(2024, 2, 14)))
	assert.Equal(t, 4, rule.FirstYearDays(hire, date(2024, 6, 14)))
	assert.Equal(t, 5, rule.FirstYearDays(hire, date(2024, 6, 15)))
	assert.Equal(t, 12, rule.FirstYearDays(hire, date(2025, 3, 1)), "capped at 12")
	assert.Equal(t, 8, timeoff.MonthlyProRata{Cap: 8}.FirstYearDays(hire, date(2025, 3, 1)))
}

func TestSixMonthStep(t *testing.T) {
	hire := date(2024, 1, 15)
	rule := timeoff.SixMonthStep{}

	assert.Equal(t, 0, rule.FirstYearDays(hire, date(2024, 6, 15)))
	assert.Equal(t, 6, rule.FirstYearDays(hire, date(2024, 7, 15)))
	assert.Equal(t, 6, rule.FirstYearDays(hire, date(2025, 1, 14)))
	assert.Equal(t, 12, rule.FirstYearDays(hire, date(2025, 1, 15)))
}

func TestEntitlement_FirstYearRuleOnlyForIndexZero(t *testing.T) {
	ent := timeoff.Entitlement{Seniority: timeoff.ClassicSeniority{}, FirstYear: timeoff.SixMonthStep{}}
	hire := date(2024, 1, 15)
	asOf := date(2024, 8, 1)

	assert.True(t, ent.EnabledDays(0, hire, hire, asOf).Equal(days(6)))
	assert.True(t, ent.EnabledDays(1, hire, hire.AddYears(1), asOf).Equal(days(14)))
}

// =============================================================================
// POLICIES
// =============================================================================

func TestDefaultPolicy_SpecScenario(t *testing.T) {
	// GIVEN: Hired 2020-01-01 under the default policy
	// WHEN: Generating periods on 2024-06-15
	// THEN: Years 3 and 4 with 18 and 20 days

	periods := timeoff.DefaultPolicy().Generator().Generate(date(2020, 1, 1), date(2024, 6, 15))

	require.Len(t, periods, 2)
	assert.Equal(t, 3, periods[0].Index)
	assert.True(t, periods[0].EnabledDays.Equal(days(18)))
	assert.True(t, periods[0].Expiry.Equal(date(2024, 7, 1)))
	assert.Equal(t, 4, periods[1].Index)
	assert.True(t, periods[1].EnabledDays.Equal(days(20)))
}

func TestReformPolicy_FirstYearEnabledOnHireDate(t *testing.T) {
	periods := timeoff.ReformPolicy().Generator().Generate(date(2024, 1, 15), date(2024, 2, 1))

	require.Len(t, periods, 1)
	assert.True(t, periods[0].EnabledDays.Equal(days(12)))
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, timeoff.DefaultPolicy().Validate())

	p := timeoff.DefaultPolicy()
	p.Entitlement.Seniority = nil
	assert.ErrorIs(t, p.Validate(), generic.ErrInvalidInput)

	p = timeoff.DefaultPolicy()
	p.ValidityMonths = -1
	assert.ErrorIs(t, p.Validate(), generic.ErrInvalidInput)
}

func TestCheckEligibility(t *testing.T) {
	policy := timeoff.DefaultPolicy()
	hire := date(2024, 3, 1)

	// GIVEN: Three and a half months of tenure
	e := policy.CheckEligibility(hire, date(2024, 6, 15))
	assert.False(t, e.Eligible)
	assert.Equal(t, 3, e.MonthsEmployed)
	assert.True(t, e.EligibleAt.Equal(date(2024, 9, 1)))
	assert.Equal(t, 78, e.DaysUntilEligible)
	assert.ErrorIs(t, e.Err(), generic.ErrNotEligible)

	// GIVEN: Exactly six months
	e = policy.CheckEligibility(hire, date(2024, 9, 1))
	assert.True(t, e.Eligible)
	assert.Equal(t, 0, e.DaysUntilEligible)
	assert.NoError(t, e.Err())
}
