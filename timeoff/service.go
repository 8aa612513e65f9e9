/*
service.go - Vacation request lifecycle

PURPOSE:
  The Service is what the HTTP layer calls. Every operation follows the
  same flow:

    1. Load the employee (hire date) and approved request history
    2. Generate periods for today           (generic.PeriodGenerator)
    3. Accumulate usage per period          (generic.UsageAccumulator)
    4. Allocate the new operation           (generic.Allocate)
    5. Persist, or reject without writing anything

OPERATIONS:
  Preview  - day count and split for a date range, no write
  Submit   - Preview + persist a pending RegularRequest
  Decide   - approve (re-checking balance) or reject a pending request
  Cancel   - approved -> cancelled, days return to the balance
  Adjust   - admin debit or credit, stored pre-approved
  Summary  - per-period enabled/used/available plus request history

CONCURRENCY:
  Submit, Decide, Cancel and Adjust hold a per-employee lock across the
  read-compute-write sequence, so two writes for the same employee never
  both see the same "before" balance. Reads take no lock.

SEE ALSO:
  - request.go: Request variants
  - summary.go: Summary and period views
  - reminders.go: Expiry reminders
*/
package timeoff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/logger"
)

// Service implements the vacation operations over a Store.
type Service struct {
	store       Store
	audit       generic.AuditLog
	audited     AuditedStore
	policy      Policy
	holidays    generic.HolidayCalendar
	notifier    Notifier
	supervisors map[string]bool
	now         func() time.Time
	newID       func() string
	locks       *employeeLocks
}

// Option configures a Service.
type Option func(*Service)

// WithAuditLog records every write in log.
func WithAuditLog(log generic.AuditLog) Option {
	return func(s *Service) { s.audit = log }
}

// WithHolidays sets the calendar used to count business days.
func WithHolidays(cal generic.HolidayCalendar) Option {
	return func(s *Service) { s.holidays = cal }
}

// WithNotifier sets the reminder transport.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithSupervisors restricts the supervisor field to the given names.
// An empty list accepts any supervisor.
func WithSupervisors(names []string) Option {
	return func(s *Service) {
		s.supervisors = make(map[string]bool, len(names))
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				s.supervisors[strings.ToLower(n)] = true
			}
		}
	}
}

// WithClock overrides time.Now. The service reads every timestamp in UTC.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides request ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a Service. The policy must be valid.
func NewService(store Store, policy Policy, opts ...Option) (*Service, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("vacation policy: %w", err)
	}
	s := &Service{
		store:    store,
		policy:   policy,
		holidays: generic.NoHolidays{},
		notifier: LogNotifier{},
		now:      time.Now,
		newID:    uuid.NewString,
		locks:    newEmployeeLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	clock := s.now
	s.now = func() time.Time { return clock().UTC() }
	if as, ok := s.store.(AuditedStore); ok && s.audit != nil && any(s.audit) == any(s.store) {
		s.audited = as
	}
	return s, nil
}

// Policy returns the active policy.
func (s *Service) Policy() Policy { return s.policy }

func (s *Service) today() generic.TimePoint {
	return generic.DateOf(s.now())
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee validates and stores an employee.
func (s *Service) SaveEmployee(ctx context.Context, emp Employee) (*Employee, error) {
	emp.Email = NormalizeEmail(emp.Email)
	if emp.Role == "" {
		emp.Role = RoleEmployee
	}
	if err := emp.Validate(); err != nil {
		return nil, err
	}
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = s.now()
	}
	if err := s.store.SaveEmployee(ctx, emp); err != nil {
		return nil, fmt.Errorf("save employee: %w", err)
	}
	return &emp, nil
}

// GetEmployee loads one employee.
func (s *Service) GetEmployee(ctx context.Context, email string) (*Employee, error) {
	return s.store.GetEmployee(ctx, NormalizeEmail(email))
}

// ListEmployees lists employees, optionally restricted to a department.
func (s *Service) ListEmployees(ctx context.Context, department string) ([]Employee, error) {
	return s.store.ListEmployees(ctx, department)
}

// =============================================================================
// BALANCES
// =============================================================================

// Balances recomputes the employee's live periods at asOf from approved
// history. History is replayed over every period opened so far, lapsed ones
// included, so old requests keep drawing from the periods they used.
func (s *Service) Balances(ctx context.Context, emp *Employee, asOf generic.TimePoint) (generic.Balances, error) {
	history, err := s.store.ListRequests(ctx, RequestFilter{
		EmployeeEmail: emp.Email,
		Statuses:      []generic.RequestStatus{generic.RequestApproved},
	})
	if err != nil {
		return nil, fmt.Errorf("load request history: %w", err)
	}

	periods := s.policy.Generator().GenerateAll(emp.HireDate, asOf)
	grants, usages := History(history)
	return s.policy.Accumulator().Accumulate(periods, grants, usages).Live(asOf), nil
}

// =============================================================================
// PREVIEW / SUBMIT
// =============================================================================

// Quote is the result of a preview: what a submission would book.
type Quote struct {
	Employee   Employee
	Request    RegularRequest
	Days       int
	Allocation generic.Allocation
	AsOf       generic.TimePoint
}

// Preview counts business days in the range and allocates them without
// writing. Fails with NotEligible, InvalidInput or InsufficientBalance.
func (s *Service) Preview(ctx context.Context, req RegularRequest) (*Quote, error) {
	req.EmployeeEmail = NormalizeEmail(req.EmployeeEmail)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.supervisorAllowed(req.Supervisor) {
		return nil, &generic.InvalidInputError{Field: "supervisor", Reason: fmt.Sprintf("%q is not a recognised supervisor", req.Supervisor)}
	}

	emp, err := s.store.GetEmployee(ctx, req.EmployeeEmail)
	if err != nil {
		return nil, err
	}

	asOf := s.today()
	if err := s.policy.CheckEligibility(emp.HireDate, asOf).Err(); err != nil {
		return nil, err
	}

	days := generic.CountBusinessDays(req.Start, req.End, s.holidays)
	if days == 0 {
		return nil, &generic.InvalidInputError{Field: "end_date", Reason: "the range contains no business days"}
	}

	balances, err := s.Balances(ctx, emp, asOf)
	if err != nil {
		return nil, err
	}

	alloc := generic.Allocate(balances, generic.Days(days), generic.ModeDebit, asOf)
	if !alloc.Satisfied() {
		return nil, generic.NewInsufficientBalance(alloc.Available, alloc.Requested)
	}

	return &Quote{
		Employee:   *emp,
		Request:    req,
		Days:       days,
		Allocation: alloc,
		AsOf:       asOf,
	}, nil
}

// Submit persists a pending request when the balance covers it.
func (s *Service) Submit(ctx context.Context, req RegularRequest) (*VacationRequest, error) {
	email := NormalizeEmail(req.EmployeeEmail)
	unlock := s.locks.Lock(email)
	defer unlock()

	quote, err := s.Preview(ctx, req)
	if err != nil {
		logger.From(ctx).Warn("vacation request rejected", "employee", email, "error", err)
		return nil, err
	}

	now := s.now()
	record := VacationRequest{
		ID:                 s.newID(),
		EmployeeEmail:      quote.Employee.Email,
		Kind:               KindRegular,
		Status:             generic.RequestPending,
		StartDate:          quote.Request.Start,
		EndDate:            quote.Request.End,
		Days:               generic.Days(quote.Days),
		Reason:             quote.Request.Reason,
		Supervisor:         quote.Request.Supervisor,
		Splits:             SplitsFrom(quote.Allocation),
		AvailableAtRequest: quote.Allocation.Available,
		SubmittedAt:        now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.persist(ctx, record, record.EmployeeEmail, generic.AuditRequestCreated, map[string]any{
		"days":      quote.Days,
		"available": quote.Allocation.Available.String(),
	}); err != nil {
		return nil, err
	}

	logger.From(ctx).Info("vacation request submitted",
		"request_id", record.ID, "employee", record.EmployeeEmail, "days", quote.Days)
	return &record, nil
}

// =============================================================================
// DECIDE / CANCEL
// =============================================================================

// Decide approves or rejects a pending request. Approval recomputes the
// balance inside the employee lock and fails with InsufficientBalance if the
// days are no longer available.
func (s *Service) Decide(ctx context.Context, id string, d Decision) (*VacationRequest, error) {
	if d.Approver == "" {
		return nil, &generic.InvalidInputError{Field: "approver", Reason: "required"}
	}

	return s.mutateRequest(ctx, id, d.Approver, func(req *VacationRequest, now time.Time) (generic.AuditAction, map[string]any, error) {
		if err := generic.CheckTransition(req.Status, d.Target()); err != nil {
			return "", nil, err
		}

		if !d.Approve {
			if err := req.Reject(d.Approver, d.Comment, now); err != nil {
				return "", nil, err
			}
			return generic.AuditRequestRejected, map[string]any{"comment": d.Comment}, nil
		}

		emp, err := s.store.GetEmployee(ctx, req.EmployeeEmail)
		if err != nil {
			return "", nil, err
		}
		asOf := s.today()
		balances, err := s.Balances(ctx, emp, asOf)
		if err != nil {
			return "", nil, err
		}
		alloc := generic.Allocate(balances, req.Days, req.Kind.Mode(), asOf)
		if !alloc.Satisfied() {
			return "", nil, generic.NewInsufficientBalance(alloc.Available, alloc.Requested)
		}

		req.Splits = SplitsFrom(alloc)
		if err := req.Approve(d.Approver, d.Comment, now); err != nil {
			return "", nil, err
		}
		return generic.AuditRequestApproved, map[string]any{
			"comment":   d.Comment,
			"available": alloc.Available.String(),
		}, nil
	})
}

// Cancel reverses an approved request.
func (s *Service) Cancel(ctx context.Context, id, actor, comment string) (*VacationRequest, error) {
	if actor == "" {
		return nil, &generic.InvalidInputError{Field: "actor", Reason: "required"}
	}
	return s.mutateRequest(ctx, id, actor, func(req *VacationRequest, now time.Time) (generic.AuditAction, map[string]any, error) {
		if err := req.Cancel(actor, comment, now); err != nil {
			return "", nil, err
		}
		return generic.AuditRequestCanceled, map[string]any{"comment": comment}, nil
	})
}

type requestMutation func(req *VacationRequest, now time.Time) (generic.AuditAction, map[string]any, error)

// mutateRequest loads the request, takes its employee lock, reloads it so the
// mutation sees the latest status, applies fn and saves.
func (s *Service) mutateRequest(ctx context.Context, id, actor string, fn requestMutation) (*VacationRequest, error) {
	existing, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(existing.EmployeeEmail)
	defer unlock()

	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	action, payload, err := fn(req, s.now())
	if err != nil {
		logger.From(ctx).Warn("vacation request change refused", "request_id", id, "status", req.Status, "error", err)
		return nil, err
	}

	if err := s.persist(ctx, *req, actor, action, payload); err != nil {
		return nil, err
	}

	logger.From(ctx).Info("vacation request updated", "request_id", req.ID, "status", req.Status)
	return req, nil
}

// =============================================================================
// ADJUST
// =============================================================================

// Adjust records an admin debit or credit as a pre-approved request dated today.
func (s *Service) Adjust(ctx context.Context, adj AdjustmentIntent) (*VacationRequest, error) {
	if err := adj.Validate(); err != nil {
		return nil, err
	}
	fields := adj.Fields()
	email := NormalizeEmail(fields.EmployeeEmail)

	unlock := s.locks.Lock(email)
	defer unlock()

	emp, err := s.store.GetEmployee(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	asOf := generic.DateOf(now)
	balances, err := s.Balances(ctx, emp, asOf)
	if err != nil {
		return nil, err
	}

	days := generic.Days(fields.Days)
	alloc := generic.Allocate(balances, days, adj.Kind().Mode(), asOf)
	if !alloc.Satisfied() {
		if adj.Kind() == KindAdminCredit {
			return nil, &generic.InvalidInputError{Field: "employee", Reason: "no open period to credit"}
		}
		return nil, generic.NewInsufficientBalance(alloc.Available, alloc.Requested)
	}

	record := VacationRequest{
		ID:                 s.newID(),
		EmployeeEmail:      emp.Email,
		Kind:               adj.Kind(),
		Status:             generic.RequestApproved,
		StartDate:          asOf,
		EndDate:            asOf,
		Days:               days,
		Reason:             fields.Reason,
		ApprovedBy:         fields.AdminEmail,
		ApprovedAt:         &now,
		Splits:             SplitsFrom(alloc),
		AvailableAtRequest: alloc.Available,
		SubmittedAt:        now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	action := generic.AuditManualDebit
	if adj.Kind() == KindAdminCredit {
		action = generic.AuditManualCredit
	}
	if err := s.persist(ctx, record, fields.AdminEmail, action, map[string]any{
		"days":   fields.Days,
		"reason": fields.Reason,
	}); err != nil {
		return nil, err
	}

	logger.From(ctx).Info("vacation balance adjusted",
		"request_id", record.ID, "employee", emp.Email, "kind", record.Kind, "days", fields.Days)
	return &record, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// GetRequest loads one request.
func (s *Service) GetRequest(ctx context.Context, id string) (*VacationRequest, error) {
	return s.store.GetRequest(ctx, id)
}

// ListRequests lists requests, newest first.
func (s *Service) ListRequests(ctx context.Context, filter RequestFilter) ([]VacationRequest, error) {
	filter.EmployeeEmail = NormalizeEmail(filter.EmployeeEmail)
	return s.store.ListRequests(ctx, filter)
}

// PendingCount counts pending requests matching filter.
func (s *Service) PendingCount(ctx context.Context, filter RequestFilter) (int, error) {
	filter.Statuses = []generic.RequestStatus{generic.RequestPending}
	reqs, err := s.ListRequests(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(reqs), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) supervisorAllowed(name string) bool {
	if len(s.supervisors) == 0 {
		return true
	}
	return s.supervisors[strings.ToLower(strings.TrimSpace(name))]
}

// persist saves req with its audit entry. When the store is also the audit
// log both are written in one transaction; otherwise an audit failure is
// logged and the saved request stands.
func (s *Service) persist(ctx context.Context, req VacationRequest, actor string, action generic.AuditAction, payload map[string]any) error {
	if s.audit == nil {
		if err := s.store.SaveRequest(ctx, req); err != nil {
			return fmt.Errorf("save request: %w", err)
		}
		return nil
	}

	entry := generic.AuditEntry{
		ID:        s.newID(),
		Timestamp: s.now(),
		ActorID:   actor,
		Action:    action,
		SubjectID: req.EmployeeEmail,
		RequestID: req.ID,
		Payload:   payload,
	}
	if s.audited != nil {
		if err := s.audited.SaveRequestAudited(ctx, req, entry); err != nil {
			return fmt.Errorf("save request: %w", err)
		}
		return nil
	}

	if err := s.store.SaveRequest(ctx, req); err != nil {
		return fmt.Errorf("save request: %w", err)
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		logger.From(ctx).Error("failed to write audit entry", "request_id", req.ID, "action", action, "error", err)
	}
	return nil
}
