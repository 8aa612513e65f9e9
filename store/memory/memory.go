// Package memory provides an in-memory Store for tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/timeoff"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	employees map[string]timeoff.Employee
	requests  map[string]timeoff.VacationRequest
	audit     []generic.AuditEntry
}

var (
	_ timeoff.Store    = (*Store)(nil)
	_ generic.AuditLog = (*Store)(nil)
)

func New() *Store {
	return &Store{
		employees: make(map[string]timeoff.Employee),
		requests:  make(map[string]timeoff.VacationRequest),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, emp timeoff.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.Email] = emp
	return nil
}

func (s *Store) GetEmployee(_ context.Context, email string) (*timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[email]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "employee", ID: email}
	}
	return &emp, nil
}

func (s *Store) ListEmployees(_ context.Context, department string) ([]timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []timeoff.Employee
	for _, emp := range s.employees {
		if department != "" && emp.Department != department {
			continue
		}
		result = append(result, emp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

// SaveRequest stores a copy so callers cannot mutate stored splits.
func (s *Store) SaveRequest(_ context.Context, req timeoff.VacationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = cloneRequest(req)
	return nil
}

// SaveRequestAudited saves a request and its audit entry under one lock.
func (s *Store) SaveRequestAudited(_ context.Context, req timeoff.VacationRequest, entry generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = cloneRequest(req)
	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*timeoff.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "request", ID: id}
	}
	req = cloneRequest(req)
	return &req, nil
}

func (s *Store) ListRequests(_ context.Context, filter timeoff.RequestFilter) ([]timeoff.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []timeoff.VacationRequest
	for _, req := range s.requests {
		if !filter.MatchesRequest(req) {
			continue
		}
		if filter.Department != "" && s.employees[req.EmployeeEmail].Department != filter.Department {
			continue
		}
		result = append(result, cloneRequest(req))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].SubmittedAt.Equal(result[j].SubmittedAt) {
			return result[i].SubmittedAt.After(result[j].SubmittedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func cloneRequest(req timeoff.VacationRequest) timeoff.VacationRequest {
	req.Splits = append([]timeoff.Split(nil), req.Splits...)
	return req
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) Append(_ context.Context, entry generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
	return nil
}

// Query returns matching entries, newest first.
func (s *Store) Query(_ context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []generic.AuditEntry
	for i := len(s.audit) - 1; i >= 0; i-- {
		if !filter.Matches(s.audit[i]) {
			continue
		}
		result = append(result, s.audit[i])
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}
