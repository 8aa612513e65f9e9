package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/timeoff"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

func employee(email, department string) timeoff.Employee {
	return timeoff.Employee{
		Email:      email,
		Name:       "Test",
		HireDate:   date(2020, 1, 1),
		Department: department,
		Role:       timeoff.RoleEmployee,
	}
}

func request(id, email string, status generic.RequestStatus, submitted time.Time) timeoff.VacationRequest {
	return timeoff.VacationRequest{
		ID:            id,
		EmployeeEmail: email,
		Kind:          timeoff.KindRegular,
		Status:        status,
		StartDate:     date(2024, 7, 1),
		EndDate:       date(2024, 7, 5),
		Days:          generic.Days(5),
		Supervisor:    "Laura",
		Splits: []timeoff.Split{
			{PeriodStart: date(2023, 1, 1), PeriodExpiry: date(2024, 7, 1), Days: generic.Days(3)},
			{PeriodStart: date(2024, 1, 1), PeriodExpiry: date(2025, 7, 1), Days: generic.Days(2)},
		},
		AvailableAtRequest: generic.Days(38),
		SubmittedAt:        submitted,
		CreatedAt:          submitted,
		UpdatedAt:          submitted,
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_SaveGetList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, employee("ana@example.com", "ops")))
	require.NoError(t, store.SaveEmployee(ctx, employee("leo@example.com", "sales")))

	emp, err := store.GetEmployee(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, emp.HireDate.Equal(date(2020, 1, 1)))
	assert.Equal(t, "ops", emp.Department)

	all, err := store.ListEmployees(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ops, err := store.ListEmployees(ctx, "ops")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "ana@example.com", ops[0].Email)
}

func TestEmployees_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := employee("ana@example.com", "ops")
	require.NoError(t, store.SaveEmployee(ctx, emp))
	emp.Department = "finance"
	emp.Role = timeoff.RoleAdmin
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, emp.Email)
	require.NoError(t, err)
	assert.Equal(t, "finance", got.Department)
	assert.Equal(t, timeoff.RoleAdmin, got.Role)
}

func TestEmployees_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetEmployee(context.Background(), "ghost@example.com")
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestRequests_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, employee("ana@example.com", "ops")))

	submitted := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	req := request("req-1", "ana@example.com", generic.RequestPending, submitted)
	require.NoError(t, store.SaveRequest(ctx, req))

	got, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)

	assert.Equal(t, timeoff.KindRegular, got.Kind)
	assert.Equal(t, generic.RequestPending, got.Status)
	assert.True(t, got.Days.Equal(generic.Days(5)))
	assert.True(t, got.AvailableAtRequest.Equal(generic.Days(38)))
	assert.True(t, got.SubmittedAt.Equal(submitted))
	assert.Nil(t, got.ApprovedAt)

	require.Len(t, got.Splits, 2)
	assert.True(t, got.Splits[0].PeriodExpiry.Equal(date(2024, 7, 1)))
	assert.True(t, got.Splits[1].Days.Equal(generic.Days(2)))
}

func TestRequests_UpdateStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, employee("ana@example.com", "ops")))

	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	req := request("req-1", "ana@example.com", generic.RequestPending, now)
	require.NoError(t, store.SaveRequest(ctx, req))

	require.NoError(t, req.Approve("rrhh@example.com", "ok", now.Add(time.Hour)))
	require.NoError(t, store.SaveRequest(ctx, req))

	got, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, generic.RequestApproved, got.Status)
	assert.Equal(t, "rrhh@example.com", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(now.Add(time.Hour)))
}

func TestRequests_ListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, employee("ana@example.com", "ops")))
	require.NoError(t, store.SaveEmployee(ctx, employee("leo@example.com", "sales")))

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRequest(ctx, request("r1", "ana@example.com", generic.RequestApproved, base)))
	require.NoError(t, store.SaveRequest(ctx, request("r2", "ana@example.com", generic.RequestPending, base.Add(time.Hour))))
	require.NoError(t, store.SaveRequest(ctx, request("r3", "leo@example.com", generic.RequestPending, base.Add(2*time.Hour))))

	all, err := store.ListRequests(ctx, timeoff.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].ID, "newest first")

	pending, err := store.ListRequests(ctx, timeoff.RequestFilter{Statuses: []generic.RequestStatus{generic.RequestPending}})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	anaApproved, err := store.ListRequests(ctx, timeoff.RequestFilter{
		EmployeeEmail: "ana@example.com",
		Statuses:      []generic.RequestStatus{generic.RequestApproved},
	})
	require.NoError(t, err)
	require.Len(t, anaApproved, 1)
	assert.Equal(t, "r1", anaApproved[0].ID)

	sales, err := store.ListRequests(ctx, timeoff.RequestFilter{Department: "sales"})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "r3", sales[0].ID)

	credits, err := store.ListRequests(ctx, timeoff.RequestFilter{Kinds: []timeoff.RequestKind{timeoff.KindAdminCredit}})
	require.NoError(t, err)
	assert.Empty(t, credits)
}

func TestRequests_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetRequest(context.Background(), "missing")
	assert.True(t, generic.IsNotFound(err))
}

func TestRequests_UnknownEmployeeRejected(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveRequest(context.Background(), request("r1", "ghost@example.com", generic.RequestPending, time.Now()))
	assert.Error(t, err)
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func TestAuditLog_AppendAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	entries := []generic.AuditEntry{
		{ID: "a1", Timestamp: base, ActorID: "ana@example.com", Action: generic.AuditRequestCreated, SubjectID: "ana@example.com", RequestID: "r1", Payload: map[string]any{"days": 5}},
		{ID: "a2", Timestamp: base.Add(time.Minute), ActorID: "rrhh@example.com", Action: generic.AuditRequestApproved, SubjectID: "ana@example.com", RequestID: "r1"},
		{ID: "a3", Timestamp: base.Add(2 * time.Minute), ActorID: "rrhh@example.com", Action: generic.AuditManualCredit, SubjectID: "leo@example.com"},
	}
	for _, e := range entries {
		require.NoError(t, store.Append(ctx, e))
	}

	subject := "ana@example.com"
	got, err := store.Query(ctx, generic.AuditFilter{SubjectID: &subject})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].ID, "newest first")
	assert.Equal(t, float64(5), got[1].Payload["days"])

	actor := "rrhh@example.com"
	got, err = store.Query(ctx, generic.AuditFilter{ActorID: &actor, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a3", got[0].ID)

	got, err = store.Query(ctx, generic.AuditFilter{Actions: []generic.AuditAction{generic.AuditRequestCreated}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RequestID)
}

func TestAuditLog_DuplicateIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := generic.AuditEntry{ID: "a1", Timestamp: time.Now(), ActorID: "x", Action: generic.AuditManualDebit, SubjectID: "y"}
	require.NoError(t, store.Append(ctx, entry))
	assert.Error(t, store.Append(ctx, entry))
}

func TestSaveRequestAudited_CommitsBoth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, employee("ana@example.com", "ops")))

	submitted := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	entry := generic.AuditEntry{ID: "a1", Timestamp: submitted, ActorID: "ana@example.com", Action: generic.AuditRequestCreated, SubjectID: "ana@example.com", RequestID: "r1"}
	require.NoError(t, store.SaveRequestAudited(ctx, request("r1", "ana@example.com", generic.RequestPending, submitted), entry))

	_, err := store.GetRequest(ctx, "r1")
	require.NoError(t, err)
	got, err := store.Query(ctx, generic.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RequestID)
}

func TestSaveRequestAudited_RollsBackOnAuditFailure(t *testing.T) {
	// GIVEN: An audit entry ID that is already taken
	// WHEN: Saving a request with an entry reusing that ID
	// THEN: The request is not saved either

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, employee("ana@example.com", "ops")))

	submitted := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	entry := generic.AuditEntry{ID: "a1", Timestamp: submitted, ActorID: "x", Action: generic.AuditManualDebit, SubjectID: "ana@example.com"}
	require.NoError(t, store.Append(ctx, entry))

	err := store.SaveRequestAudited(ctx, request("r1", "ana@example.com", generic.RequestPending, submitted), entry)
	require.Error(t, err)

	_, err = store.GetRequest(ctx, "r1")
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// SERVICE INTEGRATION
// =============================================================================

func TestService_OnSQLite(t *testing.T) {
	// GIVEN: The vacation service backed by SQLite
	// WHEN: Submitting, approving and cancelling
	// THEN: Balances follow the stored history

	store := newTestStore(t)
	ctx := context.Background()
	clock := func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }

	svc, err := timeoff.NewService(store, timeoff.DefaultPolicy(),
		timeoff.WithAuditLog(store), timeoff.WithClock(clock))
	require.NoError(t, err)

	_, err = svc.SaveEmployee(ctx, employee("ana@example.com", "ops"))
	require.NoError(t, err)

	req, err := svc.Submit(ctx, timeoff.RegularRequest{
		EmployeeEmail: "ana@example.com",
		Start:         date(2024, 7, 1),
		End:           date(2024, 7, 5),
		Supervisor:    "Laura",
	})
	require.NoError(t, err)

	_, err = svc.Decide(ctx, req.ID, timeoff.Decision{Approve: true, Approver: "rrhh@example.com"})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, summary.TotalAvailable.Equal(generic.Days(33)))

	_, err = svc.Cancel(ctx, req.ID, "rrhh@example.com", "")
	require.NoError(t, err)

	summary, err = svc.Summary(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, summary.TotalAvailable.Equal(generic.Days(38)))

	trail, err := store.Query(ctx, generic.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, trail, 3)
}

func TestService_OnSQLite_DatesReadInUTC(t *testing.T) {
	// 21:00 on June 30 at UTC-5 is July 1 in UTC; the stored request must
	// replay on the same date the service saw.
	store := newTestStore(t)
	ctx := context.Background()
	local := time.Date(2024, 6, 30, 21, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))

	svc, err := timeoff.NewService(store, timeoff.DefaultPolicy(),
		timeoff.WithAuditLog(store), timeoff.WithClock(func() time.Time { return local }))
	require.NoError(t, err)
	_, err = svc.SaveEmployee(ctx, employee("ana@example.com", "ops"))
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, timeoff.RegularRequest{
		EmployeeEmail: "ana@example.com",
		Start:         date(2024, 7, 1),
		End:           date(2024, 7, 5),
		Supervisor:    "Laura",
	})
	require.NoError(t, err)

	stored, err := store.GetRequest(ctx, submitted.ID)
	require.NoError(t, err)
	assert.True(t, stored.ReferenceDate().Equal(submitted.ReferenceDate()))
	assert.True(t, stored.ReferenceDate().Equal(date(2024, 7, 1)))
}
