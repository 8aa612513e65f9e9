/*
store.go - Audit trail interface

PURPOSE:
  Every balance-affecting write (submission, decision, cancellation,
  adjustment) leaves an audit entry recording who did what and when.
  The audit log is append-only and separate from request storage, so a
  request's current status never overwrites its history.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: audit_log table
  - store/memory/memory.go: In-memory slice for testing

SEE ALSO:
  - timeoff/service.go: Writes entries
  - api/handlers.go: Exposes the audit query to admins
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// AUDIT LOG - Tracks who did what when
// =============================================================================

// AuditEntry records who did what when.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	ActorID   string // email of the employee or admin
	Action    AuditAction
	SubjectID string // employee email the action applies to
	RequestID string
	Payload   map[string]any // action-specific data
}

type AuditAction string

const (
	AuditRequestCreated  AuditAction = "request_created"
	AuditRequestApproved AuditAction = "request_approved"
	AuditRequestRejected AuditAction = "request_rejected"
	AuditRequestCanceled AuditAction = "request_canceled"
	AuditManualDebit     AuditAction = "manual_debit"
	AuditManualCredit    AuditAction = "manual_credit"
	AuditReminderSent    AuditAction = "reminder_sent"
)

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	SubjectID *string
	ActorID   *string
	Actions   []AuditAction
	From      *time.Time
	To        *time.Time
	Limit     int
}

// Matches reports whether entry satisfies every set field of the filter.
func (f AuditFilter) Matches(entry AuditEntry) bool {
	if f.SubjectID != nil && entry.SubjectID != *f.SubjectID {
		return false
	}
	if f.ActorID != nil && entry.ActorID != *f.ActorID {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if a == entry.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && entry.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && entry.Timestamp.After(*f.To) {
		return false
	}
	return true
}
