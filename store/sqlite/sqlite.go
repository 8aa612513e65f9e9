/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists employees, vacation requests and the audit log. Balances are
  never stored: the timeoff.Service rebuilds them from approved requests
  on every read.

INTERFACES IMPLEMENTED:
  timeoff.Store:    Employees and vacation requests
  generic.AuditLog: Append-only audit trail

KEY TABLES:
  employees:         Keyed by normalized email, hire date drives all periods
  vacation_requests: Every request kind, splits stored as ordered JSON
  audit_log:         Append-only, never updated or deleted

INDEXES:
  - idx_requests_employee_status: Approved history lookup (hot path)
  - idx_requests_status:          Admin pending views
  - idx_audit_subject:            Per-employee audit trail

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Per-employee write serialization is
  the Service's job; the store only guarantees each call is atomic.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/vacation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc, err := timeoff.NewService(store, policy, timeoff.WithAuditLog(store))

SEE ALSO:
  - timeoff/store.go: Store interface
  - generic/store.go: AuditLog interface
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/vacation-engine/generic"
	"github.com/warp/vacation-engine/timeoff"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ timeoff.Store    = (*Store)(nil)
	_ generic.AuditLog = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		email TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		hire_date TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'employee',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_department
		ON employees(department);

	CREATE TABLE IF NOT EXISTS vacation_requests (
		id TEXT PRIMARY KEY,
		employee_email TEXT NOT NULL REFERENCES employees(email),
		kind TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		day_count TEXT NOT NULL,
		reason TEXT,
		supervisor TEXT,
		admin_comment TEXT,
		approved_by TEXT,
		approved_at TEXT,
		cancelled_by TEXT,
		cancelled_at TEXT,
		splits_json TEXT NOT NULL DEFAULT '[]',
		available_at_request TEXT NOT NULL DEFAULT '0',
		submitted_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Approved history per employee (hot path for every balance computation)
	CREATE INDEX IF NOT EXISTS idx_requests_employee_status
		ON vacation_requests(employee_email, status);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON vacation_requests(status);

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		request_id TEXT,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_subject
		ON audit_log(subject_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_action
		ON audit_log(action);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or updates an employee by email.
func (s *Store) SaveEmployee(ctx context.Context, emp timeoff.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO employees (email, name, hire_date, department, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			hire_date = excluded.hire_date,
			department = excluded.department,
			role = excluded.role
	`

	_, err := s.db.ExecContext(ctx, query,
		emp.Email, emp.Name,
		formatDate(emp.HireDate),
		emp.Department, string(emp.Role),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by email.
func (s *Store) GetEmployee(ctx context.Context, email string) (*timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT email, name, hire_date, department, role, created_at FROM employees WHERE email = ?",
		email,
	)
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, &generic.NotFoundError{Kind: "employee", ID: email}
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// ListEmployees returns employees ordered by email, optionally restricted to
// one department.
func (s *Store) ListEmployees(ctx context.Context, department string) ([]timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT email, name, hire_date, department, role, created_at FROM employees"
	var args []any
	if department != "" {
		query += " WHERE department = ?"
		args = append(args, department)
	}
	query += " ORDER BY email"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []timeoff.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (*timeoff.Employee, error) {
	var emp timeoff.Employee
	var hireDate, role, createdAt string
	if err := row.Scan(&emp.Email, &emp.Name, &hireDate, &emp.Department, &role, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if emp.HireDate, err = parseDate(hireDate); err != nil {
		return nil, fmt.Errorf("employee %s: bad hire_date %q: %w", emp.Email, hireDate, err)
	}
	emp.Role = timeoff.Role(role)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

// =============================================================================
// VACATION REQUESTS
// =============================================================================

// splitRecord is the stored form of one split.
type splitRecord struct {
	PeriodStart  string `json:"period_start"`
	PeriodExpiry string `json:"period_expiry"`
	Days         string `json:"days"`
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveRequest inserts or updates a request by ID.
func (s *Store) SaveRequest(ctx context.Context, r timeoff.VacationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRequest(ctx, s.db, r)
}

// SaveRequestAudited saves a request and appends its audit entry in one
// transaction. Neither is written if either fails.
func (s *Store) SaveRequestAudited(ctx context.Context, r timeoff.VacationRequest, entry generic.AuditEntry) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := saveRequest(ctx, tx, r); err != nil {
			return err
		}
		return appendAudit(ctx, tx, entry)
	})
}

func saveRequest(ctx context.Context, db execer, r timeoff.VacationRequest) error {
	splitsJSON, err := encodeSplits(r.Splits)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO vacation_requests (id, employee_email, kind, status, start_date, end_date,
			day_count, reason, supervisor, admin_comment, approved_by, approved_at,
			cancelled_by, cancelled_at, splits_json, available_at_request,
			submitted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			admin_comment = excluded.admin_comment,
			approved_by = excluded.approved_by,
			approved_at = excluded.approved_at,
			cancelled_by = excluded.cancelled_by,
			cancelled_at = excluded.cancelled_at,
			splits_json = excluded.splits_json,
			updated_at = excluded.updated_at
	`

	_, err = db.ExecContext(ctx, query,
		r.ID, r.EmployeeEmail, string(r.Kind), string(r.Status),
		formatDate(r.StartDate), formatDate(r.EndDate),
		r.Days.Value.String(),
		nullString(r.Reason), nullString(r.Supervisor), nullString(r.AdminComment),
		nullString(r.ApprovedBy), nullTime(r.ApprovedAt),
		nullString(r.CancelledBy), nullTime(r.CancelledAt),
		splitsJSON, r.AvailableAtRequest.Value.String(),
		r.SubmittedAt.UTC().Format(time.RFC3339),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

const requestColumns = `
	r.id, r.employee_email, r.kind, r.status, r.start_date, r.end_date,
	r.day_count, r.reason, r.supervisor, r.admin_comment, r.approved_by, r.approved_at,
	r.cancelled_by, r.cancelled_at, r.splits_json, r.available_at_request,
	r.submitted_at, r.created_at, r.updated_at`

// GetRequest retrieves a request by ID.
func (s *Store) GetRequest(ctx context.Context, id string) (*timeoff.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM vacation_requests r WHERE r.id = ?", id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, &generic.NotFoundError{Kind: "request", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests returns matching requests, newest submission first.
func (s *Store) ListRequests(ctx context.Context, filter timeoff.RequestFilter) ([]timeoff.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	from := "vacation_requests r"

	if filter.Department != "" {
		from += " JOIN employees e ON e.email = r.employee_email"
		where = append(where, "e.department = ?")
		args = append(args, filter.Department)
	}
	if filter.EmployeeEmail != "" {
		where = append(where, "r.employee_email = ?")
		args = append(args, filter.EmployeeEmail)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "r.status IN ("+placeholders(len(filter.Statuses))+")")
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}
	if len(filter.Kinds) > 0 {
		where = append(where, "r.kind IN ("+placeholders(len(filter.Kinds))+")")
		for _, k := range filter.Kinds {
			args = append(args, string(k))
		}
	}

	query := "SELECT " + requestColumns + " FROM " + from
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.submitted_at DESC, r.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []timeoff.VacationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func scanRequest(row scanner) (*timeoff.VacationRequest, error) {
	var r timeoff.VacationRequest
	var kind, status, startDate, endDate, dayCount, splitsJSON, available string
	var reason, supervisor, comment, approvedBy, approvedAt, cancelledBy, cancelledAt sql.NullString
	var submittedAt, createdAt, updatedAt string

	err := row.Scan(
		&r.ID, &r.EmployeeEmail, &kind, &status, &startDate, &endDate,
		&dayCount, &reason, &supervisor, &comment, &approvedBy, &approvedAt,
		&cancelledBy, &cancelledAt, &splitsJSON, &available,
		&submittedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Kind = timeoff.RequestKind(kind)
	r.Status = generic.RequestStatus(status)
	r.Reason = reason.String
	r.Supervisor = supervisor.String
	r.AdminComment = comment.String
	r.ApprovedBy = approvedBy.String
	r.CancelledBy = cancelledBy.String
	r.ApprovedAt = parseNullTime(approvedAt)
	r.CancelledAt = parseNullTime(cancelledAt)
	r.SubmittedAt, _ = time.Parse(time.RFC3339, submittedAt)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if r.StartDate, err = parseDate(startDate); err != nil {
		return nil, fmt.Errorf("request %s: bad start_date: %w", r.ID, err)
	}
	if r.EndDate, err = parseDate(endDate); err != nil {
		return nil, fmt.Errorf("request %s: bad end_date: %w", r.ID, err)
	}
	if r.Days, err = parseDays(dayCount); err != nil {
		return nil, fmt.Errorf("request %s: bad day_count: %w", r.ID, err)
	}
	if r.AvailableAtRequest, err = parseDays(available); err != nil {
		return nil, fmt.Errorf("request %s: bad available_at_request: %w", r.ID, err)
	}
	if r.Splits, err = decodeSplits(splitsJSON); err != nil {
		return nil, fmt.Errorf("request %s: %w", r.ID, err)
	}
	return &r, nil
}

func encodeSplits(splits []timeoff.Split) (string, error) {
	records := make([]splitRecord, 0, len(splits))
	for _, sp := range splits {
		records = append(records, splitRecord{
			PeriodStart:  formatDate(sp.PeriodStart),
			PeriodExpiry: formatDate(sp.PeriodExpiry),
			Days:         sp.Days.Value.String(),
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode splits: %w", err)
	}
	return string(data), nil
}

func decodeSplits(data string) ([]timeoff.Split, error) {
	var records []splitRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("bad splits_json: %w", err)
	}
	splits := make([]timeoff.Split, 0, len(records))
	for _, rec := range records {
		start, err := parseDate(rec.PeriodStart)
		if err != nil {
			return nil, err
		}
		expiry, err := parseDate(rec.PeriodExpiry)
		if err != nil {
			return nil, err
		}
		days, err := parseDays(rec.Days)
		if err != nil {
			return nil, err
		}
		splits = append(splits, timeoff.Split{PeriodStart: start, PeriodExpiry: expiry, Days: days})
	}
	return splits, nil
}

// =============================================================================
// AUDIT LOG (generic.AuditLog interface)
// =============================================================================

// Append writes an audit entry. Entries are never updated.
func (s *Store) Append(ctx context.Context, entry generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendAudit(ctx, s.db, entry)
}

func appendAudit(ctx context.Context, db execer, entry generic.AuditEntry) error {
	payloadJSON, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO audit_log (id, timestamp, actor_id, action, subject_id, request_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.ActorID,
		string(entry.Action),
		entry.SubjectID,
		nullString(entry.RequestID),
		string(payloadJSON),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("audit entry %s already recorded: %w", entry.ID, err)
		}
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Query returns matching entries, newest first.
func (s *Store) Query(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if filter.SubjectID != nil {
		where = append(where, "subject_id = ?")
		args = append(args, *filter.SubjectID)
	}
	if filter.ActorID != nil {
		where = append(where, "actor_id = ?")
		args = append(args, *filter.ActorID)
	}
	if len(filter.Actions) > 0 {
		where = append(where, "action IN ("+placeholders(len(filter.Actions))+")")
		for _, a := range filter.Actions {
			args = append(args, string(a))
		}
	}
	if filter.From != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, filter.From.UTC().Format(time.RFC3339Nano))
	}
	if filter.To != nil {
		where = append(where, "timestamp <= ?")
		args = append(args, filter.To.UTC().Format(time.RFC3339Nano))
	}

	query := "SELECT id, timestamp, actor_id, action, subject_id, request_id, payload_json FROM audit_log"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []generic.AuditEntry
	for rows.Next() {
		var e generic.AuditEntry
		var ts, action string
		var requestID, payloadJSON sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.ActorID, &action, &e.SubjectID, &requestID, &payloadJSON); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		e.Action = generic.AuditAction(action)
		e.RequestID = requestID.String
		if payloadJSON.Valid && payloadJSON.String != "" && payloadJSON.String != "null" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("audit entry %s: bad payload: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn inside a database transaction while holding the write lock.
// fn must use the given *sql.Tx, not the Store methods.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(tp generic.TimePoint) string {
	return tp.Time.Format(generic.DateLayout)
}

func parseDate(s string) (generic.TimePoint, error) {
	return generic.ParseDate(s)
}

func parseDays(s string) (generic.Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return generic.Amount{}, err
	}
	return generic.Amount{Value: d, Unit: generic.UnitDays}, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
