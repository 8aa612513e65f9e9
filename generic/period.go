package generic

// =============================================================================
// PERIOD - Anniversary entitlement window
// =============================================================================

const (
	// DefaultValidityMonths is how long days from one anniversary stay usable.
	DefaultValidityMonths = 18

	// MaxAnniversaryYears bounds period generation.
	MaxAnniversaryYears = 50
)

// Period is the entitlement opened on one hire-date anniversary.
//
// Periods are derived, never stored: the same hire date and reference date
// always produce the same list.
type Period struct {
	Index       int       // anniversary year, 0 = hire date
	Start       TimePoint // hire + Index years
	Expiry      TimePoint // Start + validity months
	EnabledDays Amount
}

// IsOpen reports whether days from the period can still be used at t.
// The expiry date itself is still usable.
func (p Period) IsOpen(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.Expiry)
}

// ExpiredAt reports whether the validity window closed before t.
func (p Period) ExpiredAt(t TimePoint) bool {
	return p.Expiry.Before(t)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.Expiry.String() + "]"
}

// =============================================================================
// PERIOD GENERATOR
// =============================================================================

// PeriodGenerator derives the anniversary periods still relevant at a date.
type PeriodGenerator struct {
	Schedule       EntitlementSchedule
	ValidityMonths int // defaults to DefaultValidityMonths
	MaxYears       int // defaults to MaxAnniversaryYears
}

// Generate returns the periods that have started on or before asOf and whose
// expiry is on or after asOf, in chronological order.
//
// Iteration walks anniversary years upward, skips fully lapsed periods and
// stops at the first period that has not opened yet.
func (g PeriodGenerator) Generate(hire, asOf TimePoint) []Period {
	return g.generate(hire, asOf, false)
}

// GenerateAll also returns lapsed periods, so approved history can be replayed
// against the periods it originally consumed.
func (g PeriodGenerator) GenerateAll(hire, asOf TimePoint) []Period {
	return g.generate(hire, asOf, true)
}

func (g PeriodGenerator) generate(hire, asOf TimePoint, includeLapsed bool) []Period {
	validity := g.ValidityMonths
	if validity <= 0 {
		validity = DefaultValidityMonths
	}
	maxYears := g.MaxYears
	if maxYears <= 0 {
		maxYears = MaxAnniversaryYears
	}

	hire = DateOf(hire.Time)
	asOf = DateOf(asOf.Time)

	var periods []Period
	for n := 0; n < maxYears; n++ {
		start := hire.AddYears(n)
		if start.After(asOf) {
			break
		}

		expiry := start.AddMonths(validity)
		if !includeLapsed && expiry.Before(asOf) {
			continue
		}

		enabled := ZeroDays()
		if g.Schedule != nil {
			enabled = g.Schedule.EnabledDays(n, hire, start, asOf).NonNegative()
		}

		periods = append(periods, Period{
			Index:       n,
			Start:       start,
			Expiry:      expiry,
			EnabledDays: enabled,
		})
	}
	return periods
}

// FindPeriod returns the index of the period starting on start, or -1.
func FindPeriod(periods []Period, start TimePoint) int {
	for i, p := range periods {
		if p.Start.Equal(start) {
			return i
		}
	}
	return -1
}
