package timeoff

import (
	"context"

	"github.com/warp/vacation-engine/generic"
)

// =============================================================================
// STORE - Persistence for employees and vacation requests
// =============================================================================

// Store persists employees and vacation requests.
//
// Balances are never stored: the Service recomputes them from the approved
// requests returned by ListRequests. Getters return a *generic.NotFoundError
// when the record does not exist.
type Store interface {
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, email string) (*Employee, error)
	ListEmployees(ctx context.Context, department string) ([]Employee, error)

	// SaveRequest inserts or updates a request by ID.
	SaveRequest(ctx context.Context, req VacationRequest) error
	GetRequest(ctx context.Context, id string) (*VacationRequest, error)

	// ListRequests returns matching requests, newest first.
	ListRequests(ctx context.Context, filter RequestFilter) ([]VacationRequest, error)
}

// AuditedStore is implemented by stores that keep their own audit log and
// can write a request together with its audit entry.
type AuditedStore interface {
	SaveRequestAudited(ctx context.Context, req VacationRequest, entry generic.AuditEntry) error
}

// RequestFilter narrows ListRequests. Zero-valued fields match everything.
type RequestFilter struct {
	EmployeeEmail string
	Department    string
	Statuses      []generic.RequestStatus
	Kinds         []RequestKind
}

// MatchesRequest checks the request-level fields. Department needs the
// employee record and is matched by the store.
func (f RequestFilter) MatchesRequest(r VacationRequest) bool {
	if f.EmployeeEmail != "" && r.EmployeeEmail != f.EmployeeEmail {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, r.Kind) {
		return false
	}
	return true
}

func containsStatus(list []generic.RequestStatus, s generic.RequestStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsKind(list []RequestKind, k RequestKind) bool {
	for _, v := range list {
		if v == k {
			return true
		}
	}
	return false
}
