package generic_test

import (
	"testing"
	"time"

	"github.com/warp/vacation-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func days(n int) generic.Amount {
	return generic.Days(n)
}

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

// annualTable enables 12 + 2N days on every anniversary, year 0 included.
var annualTable = generic.ScheduleFunc(func(index int, hire, start, asOf generic.TimePoint) generic.Amount {
	return days(12 + 2*index)
})

func generator() generic.PeriodGenerator {
	return generic.PeriodGenerator{Schedule: annualTable}
}

// =============================================================================
// PERIOD GENERATOR TESTS
// =============================================================================

func TestPeriodGenerator_ExcludesLapsedAndFuturePeriods(t *testing.T) {
	// GIVEN: Hired 2020-01-01, looking at 2024-06-15
	// WHEN: Generating periods
	// THEN: Years 0-2 expired before the reference date, year 5 has not opened.
	//       Only years 3 and 4 remain, with 18 and 20 days.

	periods := generator().Generate(date(2020, 1, 1), date(2024, 6, 15))

	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d: %v", len(periods), periods)
	}

	if periods[0].Index != 3 || !periods[0].EnabledDays.Equal(days(18)) {
		t.Errorf("expected year 3 with 18 days, got year %d with %v", periods[0].Index, periods[0].EnabledDays)
	}
	if !periods[0].Start.Equal(date(2023, 1, 1)) || !periods[0].Expiry.Equal(date(2024, 7, 1)) {
		t.Errorf("unexpected window for year 3: %s", periods[0])
	}
	if periods[1].Index != 4 || !periods[1].EnabledDays.Equal(days(20)) {
		t.Errorf("expected year 4 with 20 days, got year %d with %v", periods[1].Index, periods[1].EnabledDays)
	}
}

func TestPeriodGenerator_ExpiryDayStillIncluded(t *testing.T) {
	// GIVEN: A period expiring exactly on the reference date
	// THEN: It is still materialized

	periods := generator().Generate(date(2020, 1, 1), date(2021, 7, 1))

	if len(periods) != 2 {
		t.Fatalf("expected years 0 and 1, got %v", periods)
	}
	if periods[0].Index != 0 {
		t.Errorf("expected year 0 first, got %d", periods[0].Index)
	}
}

func TestPeriodGenerator_BeforeHireDate(t *testing.T) {
	periods := generator().Generate(date(2024, 3, 1), date(2024, 2, 1))
	if len(periods) != 0 {
		t.Errorf("expected no periods before the hire date, got %v", periods)
	}
}

func TestPeriodGenerator_OrderedAndUnique(t *testing.T) {
	// For a spread of hire and reference dates, starts strictly increase and
	// (start, expiry) pairs never repeat.
	hires := []generic.TimePoint{
		date(1990, 1, 31), date(2000, 2, 29), date(2015, 8, 15), date(2023, 12, 31),
	}
	refs := []generic.TimePoint{
		date(2024, 1, 1), date(2024, 2, 29), date(2025, 6, 30), date(2030, 12, 31),
	}

	for _, hire := range hires {
		for _, ref := range refs {
			periods := generator().Generate(hire, ref)
			seen := make(map[string]bool)
			for i, p := range periods {
				if i > 0 && !periods[i-1].Start.Before(p.Start) {
					t.Errorf("hire %s ref %s: periods out of order at %d", hire, ref, i)
				}
				if seen[p.String()] {
					t.Errorf("hire %s ref %s: duplicate period %s", hire, ref, p)
				}
				seen[p.String()] = true
				if p.Start.After(ref) {
					t.Errorf("hire %s ref %s: future period %s materialized", hire, ref, p)
				}
				if p.Expiry.Before(ref) {
					t.Errorf("hire %s ref %s: lapsed period %s materialized", hire, ref, p)
				}
			}
		}
	}
}

func TestPeriodGenerator_Idempotent(t *testing.T) {
	g := generator()
	a := g.Generate(date(2018, 5, 20), date(2024, 11, 3))
	b := g.Generate(date(2018, 5, 20), date(2024, 11, 3))

	if len(a) != len(b) {
		t.Fatalf("length differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].Expiry.Equal(b[i].Expiry) || !a[i].EnabledDays.Equal(b[i].EnabledDays) {
			t.Errorf("period %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestPeriodGenerator_CustomValidity(t *testing.T) {
	g := generic.PeriodGenerator{Schedule: annualTable, ValidityMonths: 12}

	periods := g.Generate(date(2020, 1, 1), date(2024, 6, 15))

	if len(periods) != 1 || periods[0].Index != 4 {
		t.Fatalf("expected only year 4 with a 12 month window, got %v", periods)
	}
	if !periods[0].Expiry.Equal(date(2025, 1, 1)) {
		t.Errorf("expected expiry 2025-01-01, got %s", periods[0].Expiry)
	}
}

func TestPeriodGenerator_LeapDayHire(t *testing.T) {
	// Feb 29 anniversaries normalize to Mar 1 in non-leap years.
	periods := generator().Generate(date(2020, 2, 29), date(2021, 3, 1))

	last := periods[len(periods)-1]
	if last.Index != 1 || !last.Start.Equal(date(2021, 3, 1)) {
		t.Errorf("expected year 1 starting 2021-03-01, got %s (year %d)", last.Start, last.Index)
	}
}

func TestPeriodGenerator_MaxYears(t *testing.T) {
	g := generic.PeriodGenerator{Schedule: annualTable, MaxYears: 3}

	periods := g.Generate(date(2000, 1, 1), date(2024, 6, 1))

	if len(periods) != 0 {
		t.Errorf("expected iteration to stop after 3 years, got %v", periods)
	}
}

func TestFindPeriod(t *testing.T) {
	periods := generator().Generate(date(2020, 1, 1), date(2024, 6, 15))

	if i := generic.FindPeriod(periods, date(2024, 1, 1)); i != 1 {
		t.Errorf("expected index 1, got %d", i)
	}
	if i := generic.FindPeriod(periods, date(2019, 1, 1)); i != -1 {
		t.Errorf("expected -1 for unknown period, got %d", i)
	}
}

func TestPeriodGenerator_GenerateAllKeepsLapsedPeriods(t *testing.T) {
	// GIVEN: Hired 2020-01-01, looking at 2024-06-15
	// WHEN: Generating with lapsed periods included
	// THEN: Years 0-4 are returned, year 5 still excluded

	periods := generator().GenerateAll(date(2020, 1, 1), date(2024, 6, 15))

	if len(periods) != 5 {
		t.Fatalf("expected 5 periods, got %d: %v", len(periods), periods)
	}
	for i, p := range periods {
		if p.Index != i {
			t.Errorf("period %d has index %d", i, p.Index)
		}
	}
}
