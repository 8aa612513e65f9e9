package timeoff

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/logger"
)

// DueReminders lists periods whose reminder date is asOf: Expiry minus the
// policy's lead months, with days still available.
func (s *Service) DueReminders(ctx context.Context, asOf generic.TimePoint) ([]Reminder, error) {
	if s.policy.ReminderLeadMonths <= 0 {
		return nil, nil
	}
	employees, err := s.store.ListEmployees(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	var due []Reminder
	for i := range employees {
		emp := &employees[i]
		balances, err := s.Balances(ctx, emp, asOf)
		if err != nil {
			return nil, fmt.Errorf("balances for %s: %w", emp.Email, err)
		}
		for _, b := range balances {
			remindOn := b.Period.Expiry.AddMonths(-s.policy.ReminderLeadMonths)
			if !remindOn.Equal(asOf) || !b.Available().IsPositive() {
				continue
			}
			due = append(due, Reminder{
				Employee:  *emp,
				Period:    b.Period,
				Available: b.Available(),
				RemindOn:  remindOn,
			})
		}
	}
	return due, nil
}

// SendReminders delivers every reminder due at asOf. Delivery failures do not
// stop the remaining reminders; they are joined into the returned error.
func (s *Service) SendReminders(ctx context.Context, asOf generic.TimePoint) (int, error) {
	due, err := s.DueReminders(ctx, asOf)
	if err != nil {
		return 0, err
	}

	sent := 0
	var errs []error
	for _, r := range due {
		if err := s.notifier.NotifyExpiring(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", r.Employee.Email, err))
			continue
		}
		sent++
		if s.audit != nil {
			entry := generic.AuditEntry{
				ID:        s.newID(),
				Timestamp: s.now(),
				ActorID:   "system",
				Action:    generic.AuditReminderSent,
				SubjectID: r.Employee.Email,
				Payload: map[string]any{
					"period_start": r.Period.Start.String(),
					"expiry":       r.Period.Expiry.String(),
					"available":    r.Available.String(),
				},
			}
			if err := s.audit.Append(ctx, entry); err != nil {
				errs = append(errs, fmt.Errorf("audit reminder for %s: %w", r.Employee.Email, err))
			}
		}
	}

	logger.From(ctx).Info("expiry reminders processed", "as_of", asOf.String(), "due", len(due), "sent", sent)
	return sent, errors.Join(errs...)
}
