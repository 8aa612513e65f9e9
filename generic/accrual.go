package generic

// EntitlementSchedule decides how many days an anniversary period enables.
//
// index is the anniversary year (0 for the period starting on the hire date),
// start is the period's start date and asOf is the reference date the periods
// are being generated for. Schedules are pure: implementations must not depend
// on anything besides their arguments and their own configuration.
type EntitlementSchedule interface {
	EnabledDays(index int, hire, start, asOf TimePoint) Amount
}

// ScheduleFunc adapts a plain function to EntitlementSchedule.
type ScheduleFunc func(index int, hire, start, asOf TimePoint) Amount

func (f ScheduleFunc) EnabledDays(index int, hire, start, asOf TimePoint) Amount {
	return f(index, hire, start, asOf)
}
