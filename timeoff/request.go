package timeoff

import (
	"fmt"

	"github.com/warp/vacation-engine/generic"
)

// =============================================================================
// REQUEST VARIANTS
// =============================================================================
//
// A vacation request is one of three shapes, each with its own required
// fields:
//
//   RegularRequest  employee asks for a date range, needs a supervisor,
//                   starts pending
//   AdminDebit      admin removes days, oldest period first, starts approved
//   AdminCredit     admin adds days to the latest open period, starts approved
//
// All three persist as VacationRequest with Kind set.

// Intent is implemented by every request variant.
type Intent interface {
	Kind() RequestKind
	Validate() error
}

// RegularRequest is an employee's request for a date range.
type RegularRequest struct {
	EmployeeEmail string
	Start         generic.TimePoint
	End           generic.TimePoint
	Supervisor    string
	Reason        string
}

func (RegularRequest) Kind() RequestKind { return KindRegular }

func (r RegularRequest) Validate() error {
	if r.EmployeeEmail == "" {
		return &generic.InvalidInputError{Field: "employee", Reason: "required"}
	}
	if r.Start.IsZero() {
		return &generic.InvalidInputError{Field: "start_date", Reason: "required"}
	}
	if r.End.IsZero() {
		return &generic.InvalidInputError{Field: "end_date", Reason: "required"}
	}
	if r.End.Before(r.Start) {
		return &generic.InvalidInputError{Field: "end_date", Reason: "must not be before start_date"}
	}
	if r.Supervisor == "" {
		return &generic.InvalidInputError{Field: "supervisor", Reason: "required"}
	}
	return nil
}

// Adjustment holds the fields shared by admin debits and credits.
type Adjustment struct {
	EmployeeEmail string
	Days          int
	Reason        string
	AdminEmail    string
}

func (a Adjustment) validate() error {
	if a.EmployeeEmail == "" {
		return &generic.InvalidInputError{Field: "employee", Reason: "required"}
	}
	if a.Days <= 0 {
		return &generic.InvalidInputError{Field: "days", Reason: "must be a positive number of days"}
	}
	if a.AdminEmail == "" {
		return &generic.InvalidInputError{Field: "admin", Reason: "required"}
	}
	return nil
}

// AdjustmentIntent is implemented by AdminDebit and AdminCredit.
type AdjustmentIntent interface {
	Intent
	Fields() Adjustment
}

// AdminDebit removes days from the employee's balance.
type AdminDebit struct{ Adjustment }

func (AdminDebit) Kind() RequestKind { return KindAdminDebit }
func (d AdminDebit) Validate() error { return d.validate() }
func (d AdminDebit) Fields() Adjustment { return d.Adjustment }

// AdminCredit adds days to the employee's balance.
type AdminCredit struct{ Adjustment }

func (AdminCredit) Kind() RequestKind { return KindAdminCredit }
func (c AdminCredit) Validate() error { return c.validate() }
func (c AdminCredit) Fields() Adjustment { return c.Adjustment }

// NewAdjustment builds the variant for kind ("debit", "credit" or the stored
// kind names).
func NewAdjustment(kind string, fields Adjustment) (AdjustmentIntent, error) {
	switch kind {
	case "debit", string(KindAdminDebit):
		return AdminDebit{Adjustment: fields}, nil
	case "credit", string(KindAdminCredit):
		return AdminCredit{Adjustment: fields}, nil
	default:
		return nil, &generic.InvalidInputError{Field: "kind", Reason: fmt.Sprintf("unknown adjustment kind %q", kind)}
	}
}

// Decision is an admin's verdict on a pending request.
type Decision struct {
	Approve  bool
	Approver string
	Comment  string
}

func (d Decision) Target() generic.RequestStatus {
	if d.Approve {
		return generic.RequestApproved
	}
	return generic.RequestRejected
}
