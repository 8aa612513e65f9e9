/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Dates are
  YYYY-MM-DD strings and day counts are integers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:  EmployeeDTO, CreateEmployeeRequest
  Vacation:  VacationRequest, PreviewDTO, RequestDTO, SplitDTO
  Admin:     DecisionRequest, AdjustmentRequest, CountDTO, AuditEntryDTO
  Balance:   PeriodDTO, EligibilityDTO, SummaryDTO

SPLIT LABELS:
  Splits are stored as an ordered list. "prior" and "current" are derived
  here for display: for debits the first split is prior, for credits the
  only split is current.

SEE ALSO:
  - handlers.go: Uses these types
  - timeoff/types.go: Domain records
*/
package api

import (
	"time"

	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/timeoff"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	HireDate   string `json:"hire_date"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create or update an employee.
type CreateEmployeeRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	HireDate   string `json:"hire_date"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

func toEmployeeDTO(e timeoff.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		Email:      e.Email,
		Name:       e.Name,
		HireDate:   e.HireDate.String(),
		Department: e.Department,
		Role:       string(e.Role),
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// VACATION REQUESTS
// =============================================================================

// VacationRequest is the body of preview and submit.
type VacationRequest struct {
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Supervisor string `json:"supervisor"`
	Reason     string `json:"reason,omitempty"`
}

// SplitDTO is the part of a request booked against one period.
type SplitDTO struct {
	PeriodStart  string `json:"period_start"`
	PeriodExpiry string `json:"period_expiry"`
	Days         int    `json:"days"`
}

// PreviewDTO is the result of a preview.
type PreviewDTO struct {
	Days      int        `json:"days"`
	Available int        `json:"available"`
	AsOf      string     `json:"as_of"`
	Prior     *SplitDTO  `json:"prior,omitempty"`
	Current   *SplitDTO  `json:"current,omitempty"`
	Splits    []SplitDTO `json:"splits"`
}

// RequestDTO represents a stored vacation request or adjustment.
type RequestDTO struct {
	ID                 string     `json:"id"`
	EmployeeEmail      string     `json:"employee_email"`
	Kind               string     `json:"kind"`
	Status             string     `json:"status"`
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	Days               int        `json:"days"`
	Reason             string     `json:"reason,omitempty"`
	Supervisor         string     `json:"supervisor,omitempty"`
	AdminComment       string     `json:"admin_comment,omitempty"`
	ApprovedBy         string     `json:"approved_by,omitempty"`
	ApprovedAt         string     `json:"approved_at,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancelledAt        string     `json:"cancelled_at,omitempty"`
	Prior              *SplitDTO  `json:"prior,omitempty"`
	Current            *SplitDTO  `json:"current,omitempty"`
	Splits             []SplitDTO `json:"splits"`
	AvailableAtRequest int        `json:"available_at_request"`
	SubmittedAt        string     `json:"submitted_at"`
}

func toSplitDTO(s *timeoff.Split) *SplitDTO {
	if s == nil {
		return nil
	}
	return &SplitDTO{
		PeriodStart:  s.PeriodStart.String(),
		PeriodExpiry: s.PeriodExpiry.String(),
		Days:         s.Days.Int(),
	}
}

func toSplitDTOs(splits []timeoff.Split) []SplitDTO {
	dtos := make([]SplitDTO, 0, len(splits))
	for i := range splits {
		dtos = append(dtos, *toSplitDTO(&splits[i]))
	}
	return dtos
}

func toPeriodSplitDTO(s *generic.PeriodSplit) *SplitDTO {
	if s == nil {
		return nil
	}
	return &SplitDTO{
		PeriodStart:  s.Period.Start.String(),
		PeriodExpiry: s.Period.Expiry.String(),
		Days:         s.Days.Int(),
	}
}

func toPreviewDTO(q *timeoff.Quote) PreviewDTO {
	return PreviewDTO{
		Days:      q.Days,
		Available: q.Allocation.Available.Int(),
		AsOf:      q.AsOf.String(),
		Prior:     toPeriodSplitDTO(q.Allocation.Prior()),
		Current:   toPeriodSplitDTO(q.Allocation.Current()),
		Splits:    toSplitDTOs(timeoff.SplitsFrom(q.Allocation)),
	}
}

func toRequestDTO(r timeoff.VacationRequest) RequestDTO {
	return RequestDTO{
		ID:                 r.ID,
		EmployeeEmail:      r.EmployeeEmail,
		Kind:               string(r.Kind),
		Status:             string(r.Status),
		StartDate:          r.StartDate.String(),
		EndDate:            r.EndDate.String(),
		Days:               r.Days.Int(),
		Reason:             r.Reason,
		Supervisor:         r.Supervisor,
		AdminComment:       r.AdminComment,
		ApprovedBy:         r.ApprovedBy,
		ApprovedAt:         formatOptionalTime(r.ApprovedAt),
		CancelledBy:        r.CancelledBy,
		CancelledAt:        formatOptionalTime(r.CancelledAt),
		Prior:              toSplitDTO(r.Prior()),
		Current:            toSplitDTO(r.Current()),
		Splits:             toSplitDTOs(r.Splits),
		AvailableAtRequest: r.AvailableAtRequest.Int(),
		SubmittedAt:        r.SubmittedAt.Format(time.RFC3339),
	}
}

func toRequestDTOs(reqs []timeoff.VacationRequest) []RequestDTO {
	dtos := make([]RequestDTO, 0, len(reqs))
	for _, r := range reqs {
		dtos = append(dtos, toRequestDTO(r))
	}
	return dtos
}

// =============================================================================
// ADMIN
// =============================================================================

// DecisionRequest is the body of approve, reject and cancel.
type DecisionRequest struct {
	Comment string `json:"comment,omitempty"`
}

// AdjustmentRequest is the body of an admin debit or credit.
type AdjustmentRequest struct {
	EmployeeEmail string `json:"employee_email"`
	Kind          string `json:"kind"` // debit or credit
	Days          int    `json:"days"`
	Reason        string `json:"reason"`
}

// CountDTO wraps a single count.
type CountDTO struct {
	Count int `json:"count"`
}

// AuditEntryDTO represents one audit log entry.
type AuditEntryDTO struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Subject   string         `json:"subject"`
	RequestID string         `json:"request_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func toAuditEntryDTOs(entries []generic.AuditEntry) []AuditEntryDTO {
	dtos := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, AuditEntryDTO{
			ID:        e.ID,
			Timestamp: e.Timestamp.Format(time.RFC3339),
			Actor:     e.ActorID,
			Action:    string(e.Action),
			Subject:   e.SubjectID,
			RequestID: e.RequestID,
			Payload:   e.Payload,
		})
	}
	return dtos
}

// =============================================================================
// BALANCES
// =============================================================================

// PeriodDTO is one anniversary period's balance.
type PeriodDTO struct {
	Index     int    `json:"index"`
	Start     string `json:"start"`
	Expiry    string `json:"expiry"`
	Enabled   int    `json:"enabled"`
	Credited  int    `json:"credited"`
	Used      int    `json:"used"`
	Available int    `json:"available"`
}

// EligibilityDTO reports whether the employee may request vacation yet.
type EligibilityDTO struct {
	Eligible          bool   `json:"eligible"`
	MonthsEmployed    int    `json:"months_employed"`
	EligibleAt        string `json:"eligible_at"`
	DaysUntilEligible int    `json:"days_until_eligible"`
}

// SummaryDTO is an employee's vacation summary.
type SummaryDTO struct {
	Employee       EmployeeDTO    `json:"employee"`
	AsOf           string         `json:"as_of"`
	Eligibility    EligibilityDTO `json:"eligibility"`
	Periods        []PeriodDTO    `json:"periods"`
	TotalEnabled   int            `json:"total_enabled"`
	TotalUsed      int            `json:"total_used"`
	TotalAvailable int            `json:"total_available"`
	Requests       []RequestDTO   `json:"requests"`
}

func toPeriodDTOs(views []timeoff.PeriodView) []PeriodDTO {
	dtos := make([]PeriodDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, PeriodDTO{
			Index:     v.Index,
			Start:     v.Start.String(),
			Expiry:    v.Expiry.String(),
			Enabled:   v.Enabled.Int(),
			Credited:  v.Credited.Int(),
			Used:      v.Used.Int(),
			Available: v.Available.Int(),
		})
	}
	return dtos
}

func toSummaryDTO(s *timeoff.Summary) SummaryDTO {
	return SummaryDTO{
		Employee: toEmployeeDTO(s.Employee),
		AsOf:     s.AsOf.String(),
		Eligibility: EligibilityDTO{
			Eligible:          s.Eligibility.Eligible,
			MonthsEmployed:    s.Eligibility.MonthsEmployed,
			EligibleAt:        s.Eligibility.EligibleAt.String(),
			DaysUntilEligible: s.Eligibility.DaysUntilEligible,
		},
		Periods:        toPeriodDTOs(s.Periods),
		TotalEnabled:   s.TotalEnabled.Int(),
		TotalUsed:      s.TotalUsed.Int(),
		TotalAvailable: s.TotalAvailable.Int(),
		Requests:       toRequestDTOs(s.Requests),
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every error reply. Available and
// DaysRemaining are set for balance and eligibility failures.
type ErrorResponse struct {
	Error         string `json:"error"`
	Details       string `json:"details,omitempty"`
	Available     *int   `json:"available,omitempty"`
	Shortfall     *int   `json:"shortfall,omitempty"`
	DaysRemaining *int   `json:"days_remaining,omitempty"`
	EligibleAt    string `json:"eligible_at,omitempty"`
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
