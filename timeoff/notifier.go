package timeoff

import (
	"context"

	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/logger"
)

// Reminder tells an employee that days in a period are about to expire.
type Reminder struct {
	Employee  Employee
	Period    generic.Period
	Available generic.Amount
	RemindOn  generic.TimePoint
}

// Notifier delivers reminders. Email delivery lives outside this service;
// implementations adapt to whatever transport is deployed.
type Notifier interface {
	NotifyExpiring(ctx context.Context, r Reminder) error
}

// LogNotifier writes reminders to the structured log.
type LogNotifier struct{}

func (LogNotifier) NotifyExpiring(ctx context.Context, r Reminder) error {
	logger.From(ctx).Info("vacation days expiring",
		"employee", r.Employee.Email,
		"name", r.Employee.Name,
		"period_start", r.Period.Start.String(),
		"expires", r.Period.Expiry.String(),
		"available", r.Available.String(),
	)
	return nil
}
