package generic

// =============================================================================
// BUSINESS-DAY COUNTER
// =============================================================================

// CountBusinessDays counts Monday-Friday dates in [start, end] that are not
// holidays. Both ends are inclusive and compared at day granularity, so
// callers may pass timestamps with any time-of-day. Returns 0 when end is
// before start.
func CountBusinessDays(start, end TimePoint, calendar HolidayCalendar) int {
	from := DateOf(start.Time)
	to := DateOf(end.Time)

	count := 0
	for day := from; day.BeforeOrEqual(to); day = day.AddDays(1) {
		if IsBusinessDay(day, calendar) {
			count++
		}
	}
	return count
}

// IsBusinessDay reports whether date is a weekday and not a holiday.
func IsBusinessDay(date TimePoint, calendar HolidayCalendar) bool {
	if date.IsWeekend() {
		return false
	}
	if calendar != nil && calendar.IsHoliday(date) {
		return false
	}
	return true
}
