// Package timeoff implements vacation entitlements on top of the generic engine:
// seniority schedules, the request lifecycle and the Service used by the API.
package timeoff

import (
	"strings"
	"time"

	"github.com/warp/vacation-engine/generic"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type Role string

const (
	RoleEmployee    Role = "employee"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"  // manages one department
	RoleGlobalAdmin Role = "admin2" // manages every department
)

// IsAdmin reports whether the role may decide requests and adjust balances.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleGlobalAdmin
}

// Employee owns vacation requests. HireDate drives all period math.
type Employee struct {
	Email      string
	Name       string
	HireDate   generic.TimePoint
	Department string
	Role       Role
	CreatedAt  time.Time
}

// NormalizeEmail lowercases and trims an email used as an employee key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (e Employee) Validate() error {
	if e.Email == "" || !strings.Contains(e.Email, "@") {
		return &generic.InvalidInputError{Field: "email", Reason: "a valid email is required"}
	}
	if e.HireDate.IsZero() {
		return &generic.InvalidInputError{Field: "hire_date", Reason: "required"}
	}
	switch e.Role {
	case "", RoleEmployee, RoleCoordinator, RoleAdmin, RoleGlobalAdmin:
	default:
		return &generic.InvalidInputError{Field: "role", Reason: "unknown role " + string(e.Role)}
	}
	return nil
}

// =============================================================================
// VACATION REQUEST - Stored form of every request kind
// =============================================================================

// RequestKind discriminates the request variants.
type RequestKind string

const (
	KindRegular     RequestKind = "regular"
	KindAdminDebit  RequestKind = "admin_debit"
	KindAdminCredit RequestKind = "admin_credit"
)

func (k RequestKind) Valid() bool {
	return k == KindRegular || k == KindAdminDebit || k == KindAdminCredit
}

// Mode is the allocation mode used for this kind.
func (k RequestKind) Mode() generic.AllocationMode {
	if k == KindAdminCredit {
		return generic.ModeCredit
	}
	return generic.ModeDebit
}

// Split is the part of a request booked against one period.
type Split struct {
	PeriodStart  generic.TimePoint
	PeriodExpiry generic.TimePoint
	Days         generic.Amount
}

// SplitsFrom converts an allocation into stored splits, preserving order.
func SplitsFrom(alloc generic.Allocation) []Split {
	splits := make([]Split, 0, len(alloc.Splits))
	for _, s := range alloc.Splits {
		splits = append(splits, Split{
			PeriodStart:  s.Period.Start,
			PeriodExpiry: s.Period.Expiry,
			Days:         s.Days,
		})
	}
	return splits
}

// VacationRequest is the persisted record for all three request kinds.
// Which fields are meaningful depends on Kind; construct records through
// RegularRequest, AdminDebit and AdminCredit rather than by hand.
type VacationRequest struct {
	ID            string
	EmployeeEmail string
	Kind          RequestKind
	Status        generic.RequestStatus

	StartDate generic.TimePoint
	EndDate   generic.TimePoint
	Days      generic.Amount

	Reason       string
	Supervisor   string
	AdminComment string

	ApprovedBy  string
	ApprovedAt  *time.Time
	CancelledBy string
	CancelledAt *time.Time

	// Splits are ordered in allocation order.
	Splits             []Split
	AvailableAtRequest generic.Amount

	SubmittedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReferenceDate is the date used for the expiry check when this request is
// replayed. Approved requests use the approval date, which is the date their
// allocation was checked against; otherwise the submission date, falling back
// to the requested start. Timestamps are read in UTC.
func (r VacationRequest) ReferenceDate() generic.TimePoint {
	if r.ApprovedAt != nil && !r.ApprovedAt.IsZero() {
		return generic.DateOf(r.ApprovedAt.UTC())
	}
	if !r.SubmittedAt.IsZero() {
		return generic.DateOf(r.SubmittedAt.UTC())
	}
	return r.StartDate
}

// Prior returns the split presented as "prior", if any.
func (r VacationRequest) Prior() *Split {
	if r.Kind == KindAdminCredit {
		if len(r.Splits) > 1 {
			return &r.Splits[1]
		}
		return nil
	}
	if len(r.Splits) > 0 {
		return &r.Splits[0]
	}
	return nil
}

// Current returns the split presented as "current", if any.
func (r VacationRequest) Current() *Split {
	if r.Kind == KindAdminCredit {
		if len(r.Splits) > 0 {
			return &r.Splits[0]
		}
		return nil
	}
	if len(r.Splits) > 1 {
		return &r.Splits[1]
	}
	return nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Approve moves a pending request to approved.
func (r *VacationRequest) Approve(approver, comment string, at time.Time) error {
	if err := generic.CheckTransition(r.Status, generic.RequestApproved); err != nil {
		return err
	}
	r.Status = generic.RequestApproved
	r.ApprovedBy = approver
	r.ApprovedAt = &at
	r.AdminComment = comment
	r.UpdatedAt = at
	return nil
}

// Reject moves a pending request to rejected and clears approval fields.
func (r *VacationRequest) Reject(approver, comment string, at time.Time) error {
	if err := generic.CheckTransition(r.Status, generic.RequestRejected); err != nil {
		return err
	}
	r.Status = generic.RequestRejected
	r.ApprovedBy = ""
	r.ApprovedAt = nil
	r.AdminComment = comment
	r.UpdatedAt = at
	return nil
}

// Cancel reverses an approved request. Its days stop counting immediately.
func (r *VacationRequest) Cancel(actor, comment string, at time.Time) error {
	if err := generic.CheckTransition(r.Status, generic.RequestCancelled); err != nil {
		return err
	}
	r.Status = generic.RequestCancelled
	r.CancelledBy = actor
	r.CancelledAt = &at
	if comment != "" {
		r.AdminComment = comment
	}
	r.UpdatedAt = at
	return nil
}

// =============================================================================
// HISTORY -> ENGINE INPUTS
// =============================================================================

// History converts approved requests into accumulator inputs. Other statuses
// are ignored.
func History(requests []VacationRequest) ([]generic.Grant, []generic.Usage) {
	var grants []generic.Grant
	var usages []generic.Usage
	for _, r := range requests {
		if !r.Status.CountsTowardBalance() {
			continue
		}
		switch r.Kind {
		case KindAdminCredit:
			for _, s := range r.Splits {
				grants = append(grants, generic.Grant{Ref: r.ID, Days: s.Days, PeriodStart: s.PeriodStart})
			}
		default:
			usages = append(usages, generic.Usage{Ref: r.ID, Days: r.Days, ReferenceAt: r.ReferenceDate()})
		}
	}
	return grants, usages
}
