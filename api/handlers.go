/*
handlers.go - HTTP API handlers for the vacation service

PURPOSE:
  Exposes timeoff.Service via REST API. Handles HTTP request/response,
  JSON serialization, caller identity and department scoping, and
  delegates every balance decision to the service.

ENDPOINTS:
  Employees (any authenticated caller, acting on themselves):
    POST   /api/vacations/preview              Day count and split, no write
    POST   /api/vacations                      Submit a pending request
    GET    /api/vacations/summary              Periods, totals and requests

  Admin (admin scoped to a department, admin2 unrestricted):
    GET    /api/admin/requests?status=&employee=   List requests
    GET    /api/admin/requests/pending-count       Count pending requests
    POST   /api/admin/requests/{id}/approve        Approve (re-checks balance)
    POST   /api/admin/requests/{id}/reject         Reject
    POST   /api/admin/requests/{id}/cancel         Cancel an approved request
    POST   /api/admin/adjustments                  Manual debit or credit
    GET    /api/admin/employees                    List employees
    POST   /api/admin/employees                    Create or update employee
    GET    /api/admin/employees/{email}/periods    Period balances
    GET    /api/admin/audit?subject=&actor=&action=  Audit trail

ERROR HANDLING:
  writeServiceError maps engine errors to HTTP status:
  - 400: InvalidInput, InsufficientBalance (with available), NotEligible
         (with days_remaining)
  - 403: Outside the admin's department
  - 404: Unknown employee or request
  - 409: Request is not in a status that allows the transition
  - 500: Anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Identity and department scope
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/logger"
	"github.com/warp/vacation-engine/timeoff"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *timeoff.Service
	Audit   generic.AuditLog
	Metrics *Metrics
	Health  Pinger

	// admin email -> managed department
	departments map[string]string
}

// NewHandler creates a handler. departments maps admin emails to the
// department they manage.
func NewHandler(svc *timeoff.Service, audit generic.AuditLog, departments map[string]string, metrics *Metrics) *Handler {
	normalized := make(map[string]string, len(departments))
	for email, dept := range departments {
		normalized[timeoff.NormalizeEmail(email)] = dept
	}
	return &Handler{
		Service:     svc,
		Audit:       audit,
		Metrics:     metrics,
		departments: normalized,
	}
}

// Healthz reports liveness and store reachability.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// EMPLOYEE VACATION HANDLERS
// =============================================================================

// PreviewVacation counts business days and shows the split without writing.
func (h *Handler) PreviewVacation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)

	intent, err := decodeVacationRequest(r, id.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	quote, err := h.Service.Preview(ctx, intent)
	h.Metrics.ObserveOperation("preview", err)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPreviewDTO(quote))
}

// SubmitVacation persists a pending request for the caller.
func (h *Handler) SubmitVacation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)

	intent, err := decodeVacationRequest(r, id.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	req, err := h.Service.Submit(ctx, intent)
	h.Metrics.ObserveOperation("submit", err)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestDTO(*req))
}

// GetSummary returns the caller's periods, totals and requests.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)

	summary, err := h.Service.Summary(ctx, id.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

func decodeVacationRequest(r *http.Request, email string) (timeoff.RegularRequest, error) {
	var body VacationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return timeoff.RegularRequest{}, &generic.InvalidInputError{Field: "body", Reason: err.Error()}
	}

	start, err := parseDateField("start_date", body.StartDate)
	if err != nil {
		return timeoff.RegularRequest{}, err
	}
	end, err := parseDateField("end_date", body.EndDate)
	if err != nil {
		return timeoff.RegularRequest{}, err
	}

	return timeoff.RegularRequest{
		EmployeeEmail: email,
		Start:         start,
		End:           end,
		Supervisor:    body.Supervisor,
		Reason:        body.Reason,
	}, nil
}

// =============================================================================
// ADMIN REQUEST HANDLERS
// =============================================================================

// ListRequests lists requests within the admin's scope, newest first.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)

	filter, err := h.requestFilter(ctx, id, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := generic.RequestStatus(status)
		if !s.Valid() {
			writeServiceError(w, &generic.InvalidInputError{Field: "status", Reason: "unknown status " + status})
			return
		}
		filter.Statuses = []generic.RequestStatus{s}
	}

	reqs, err := h.Service.ListRequests(ctx, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// PendingCount counts pending requests within the admin's scope.
func (h *Handler) PendingCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)

	filter, err := h.requestFilter(ctx, id, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	count, err := h.Service.PendingCount(ctx, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CountDTO{Count: count})
}

// ApproveRequest approves a pending request.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// RejectRequest rejects a pending request.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)
	requestID := chi.URLParam(r, "id")

	body, err := decodeDecision(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.authorizeRequest(ctx, id, requestID); err != nil {
		writeServiceError(w, err)
		return
	}

	req, err := h.Service.Decide(ctx, requestID, timeoff.Decision{
		Approve:  approve,
		Approver: id.Email,
		Comment:  body.Comment,
	})
	operation := "reject"
	if approve {
		operation = "approve"
	}
	h.Metrics.ObserveOperation(operation, err)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// CancelRequest cancels an approved request; its days return to the balance.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)
	requestID := chi.URLParam(r, "id")

	body, err := decodeDecision(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.authorizeRequest(ctx, id, requestID); err != nil {
		writeServiceError(w, err)
		return
	}

	req, err := h.Service.Cancel(ctx, requestID, id.Email, body.Comment)
	h.Metrics.ObserveOperation("cancel", err)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// CreateAdjustment records a manual debit or credit.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)

	var body AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := h.authorizeEmployee(ctx, id, body.EmployeeEmail); err != nil {
		writeServiceError(w, err)
		return
	}

	intent, err := timeoff.NewAdjustment(body.Kind, timeoff.Adjustment{
		EmployeeEmail: body.EmployeeEmail,
		Days:          body.Days,
		Reason:        body.Reason,
		AdminEmail:    id.Email,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	req, err := h.Service.Adjust(ctx, intent)
	h.Metrics.ObserveOperation("adjust", err)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestDTO(*req))
}

// requestFilter scopes a listing to the admin's department and the optional
// employee query parameter.
func (h *Handler) requestFilter(ctx context.Context, id Identity, r *http.Request) (timeoff.RequestFilter, error) {
	dept, err := h.adminScope(id)
	if err != nil {
		return timeoff.RequestFilter{}, err
	}
	filter := timeoff.RequestFilter{Department: dept}
	if email := r.URL.Query().Get("employee"); email != "" {
		if _, err := h.authorizeEmployee(ctx, id, email); err != nil {
			return timeoff.RequestFilter{}, err
		}
		filter.EmployeeEmail = email
	}
	return filter, nil
}

func (h *Handler) authorizeRequest(ctx context.Context, id Identity, requestID string) error {
	req, err := h.Service.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	_, err = h.authorizeEmployee(ctx, id, req.EmployeeEmail)
	return err
}

func decodeDecision(r *http.Request) (DecisionRequest, error) {
	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return body, &generic.InvalidInputError{Field: "body", Reason: err.Error()}
	}
	return body, nil
}

// =============================================================================
// ADMIN EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the employees in the admin's scope.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)

	dept, err := h.adminScope(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	employees, err := h.Service.ListEmployees(ctx, dept)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or updates an employee. Department admins can only
// place employees in their own department.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)

	var body CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dept, err := h.adminScope(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if dept != "" {
		if body.Department != "" && !strings.EqualFold(body.Department, dept) {
			writeError(w, http.StatusForbidden, "Department outside your scope", nil)
			return
		}
		body.Department = dept
		if timeoff.Role(body.Role) == timeoff.RoleGlobalAdmin {
			writeError(w, http.StatusForbidden, "Only a global admin can grant the admin2 role", nil)
			return
		}
	}

	hire, err := parseDateField("hire_date", body.HireDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	emp, err := h.Service.SaveEmployee(ctx, timeoff.Employee{
		Email:      body.Email,
		Name:       body.Name,
		HireDate:   hire,
		Department: body.Department,
		Role:       timeoff.Role(body.Role),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logger.From(ctx).Info("employee saved", "employee", emp.Email, "department", emp.Department)
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*emp))
}

// GetEmployeePeriods returns an employee's live periods, as of today or the
// as_of query parameter.
func (h *Handler) GetEmployeePeriods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)
	email := chi.URLParam(r, "email")

	if _, err := h.authorizeEmployee(ctx, id, email); err != nil {
		writeServiceError(w, err)
		return
	}

	var asOf generic.TimePoint
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		var err error
		if asOf, err = parseDateField("as_of", raw); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	periods, err := h.Service.Periods(ctx, email, asOf)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodDTOs(periods))
}

// =============================================================================
// AUDIT
// =============================================================================

// ListAudit returns audit entries, newest first. Department admins must name
// a subject in their department.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := IdentityFrom(ctx)
	q := r.URL.Query()

	if h.Audit == nil {
		writeJSON(w, http.StatusOK, []AuditEntryDTO{})
		return
	}

	filter := generic.AuditFilter{Limit: 100}
	if subject := q.Get("subject"); subject != "" {
		if _, err := h.authorizeEmployee(ctx, id, subject); err != nil {
			writeServiceError(w, err)
			return
		}
		s := timeoff.NormalizeEmail(subject)
		filter.SubjectID = &s
	} else if id.Role != timeoff.RoleGlobalAdmin {
		writeError(w, http.StatusForbidden, "subject is required for department admins", nil)
		return
	}
	if actor := q.Get("actor"); actor != "" {
		a := timeoff.NormalizeEmail(actor)
		filter.ActorID = &a
	}
	if action := q.Get("action"); action != "" {
		filter.Actions = []generic.AuditAction{generic.AuditAction(action)}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeServiceError(w, &generic.InvalidInputError{Field: "limit", Reason: "must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	entries, err := h.Audit.Query(ctx, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query audit log", err)
		return
	}

	writeJSON(w, http.StatusOK, toAuditEntryDTOs(entries))
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDateField(field, value string) (generic.TimePoint, error) {
	if value == "" {
		return generic.TimePoint{}, &generic.InvalidInputError{Field: field, Reason: "required"}
	}
	tp, err := generic.ParseDate(value)
	if err != nil {
		return generic.TimePoint{}, &generic.InvalidInputError{Field: field, Reason: "use YYYY-MM-DD"}
	}
	return tp, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps engine errors to status codes and error bodies.
func writeServiceError(w http.ResponseWriter, err error) {
	var balErr *generic.InsufficientBalanceError
	var eligErr *generic.NotEligibleError

	switch {
	case errors.As(err, &balErr):
		available := balErr.Available.Int()
		shortfall := balErr.Shortfall.Int()
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:     "Insufficient balance",
			Details:   err.Error(),
			Available: &available,
			Shortfall: &shortfall,
		})
	case errors.As(err, &eligErr):
		remaining := eligErr.DaysRemaining
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:         "Not eligible for vacation yet",
			Details:       err.Error(),
			DaysRemaining: &remaining,
			EligibleAt:    eligErr.EligibleAt.String(),
		})
	case errors.Is(err, generic.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, "Request status does not allow this change", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, generic.ErrForbidden):
		writeError(w, http.StatusForbidden, "Outside your department", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
