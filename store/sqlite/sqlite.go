/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (SessionStore, PlanStore,
  ResultStore, TxStore) using SQLite. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The sessions table is append-only:
  - No UPDATE statements on sessions
  - No DELETE statements on sessions

KEY TABLES:
  plans:    Plan headers with status and standard run rate
  sessions: Immutable ledger of production confirmations
  results:  One finalization rollup per plan

INDEXES:
  idx_sessions_plan:        Aggregation queries (hot path)
  idx_sessions_plan_number: UNIQUE - the enforcement backstop for the
                            "read max, insert max+1" numbering sequence.
                            A violation surfaces as ErrSessionNumberConflict.
  idx_results_plan:         UNIQUE - at most one result row per plan.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; WithTx holds the write lock for the
  whole callback, which serializes session numbering and finalization per
  process. The unique indexes remain the backstop across processes. In
  production with PostgreSQL, database-level concurrency control handles
  this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time, better crash
  recovery.

USAGE:
  store, err := sqlite.New("./data/production.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  tracker := mes.NewTracker(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - mes/store.go: Interface definitions
  - mes/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/production-engine/mes"
)

// Store implements mes.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time, and a pooled ":memory:" DSN would
	// give every connection its own empty database. A single connection
	// serves both cases.
	db.SetMaxOpenConns(1)

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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Plan headers (status and confirmed output are the only fields the
	-- core writes)
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		machine_id TEXT,
		target_output INTEGER NOT NULL CHECK (target_output >= 0),
		standard_run_rate TEXT NOT NULL,
		status TEXT NOT NULL,
		confirmed_output INTEGER NOT NULL DEFAULT 0,
		default_break_morning INTEGER NOT NULL DEFAULT 0,
		default_break_lunch INTEGER NOT NULL DEFAULT 0,
		default_break_evening INTEGER NOT NULL DEFAULT 0,
		default_downtime INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);

	-- Sessions (append-only ledger)
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		session_number INTEGER NOT NULL,
		actual_start TEXT NOT NULL,
		actual_end TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		reject_quantity INTEGER NOT NULL,
		rework_quantity INTEGER NOT NULL,
		break_morning INTEGER NOT NULL,
		break_lunch INTEGER NOT NULL,
		break_evening INTEGER NOT NULL,
		downtime_minutes INTEGER NOT NULL,
		downtime_reason TEXT,
		working_minutes INTEGER NOT NULL,
		remark TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_plan
		ON sessions(plan_id);

	-- CRITICAL: the backstop for gapless session numbering. Two writers
	-- racing the read-max-then-insert sequence cannot both commit the same
	-- number; the loser fails and retries the whole submission.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_plan_number
		ON sessions(plan_id, session_number);

	-- Results (one rollup per plan)
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		session_count INTEGER NOT NULL,
		total_produced INTEGER NOT NULL,
		total_rejects INTEGER NOT NULL,
		total_rework INTEGER NOT NULL,
		total_working_minutes INTEGER NOT NULL,
		total_downtime INTEGER NOT NULL,
		oee_availability TEXT NOT NULL,
		oee_performance TEXT NOT NULL,
		oee_quality TEXT NOT NULL,
		oee_overall TEXT NOT NULL,
		clamped_metrics TEXT,
		finalized_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_results_plan
		ON results(plan_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// queryer abstracts *sql.DB and *sql.Tx so the same statement helpers serve
// both direct calls and calls inside WithTx (which must not re-take locks).
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// SESSION STORE (mes.SessionStore interface)
// =============================================================================

// AppendSession adds a session to the ledger.
func (s *Store) AppendSession(ctx context.Context, session mes.ProductionSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendSession(ctx, s.db, session)
}

func appendSession(ctx context.Context, q queryer, session mes.ProductionSession) error {
	query := `
		INSERT INTO sessions
		(id, plan_id, session_number, actual_start, actual_end, quantity,
		 reject_quantity, rework_quantity, break_morning, break_lunch,
		 break_evening, downtime_minutes, downtime_reason, working_minutes,
		 remark, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		session.ID,
		session.PlanID,
		session.SessionNumber,
		session.ActualStart.UTC().Format(time.RFC3339),
		session.ActualEnd.UTC().Format(time.RFC3339),
		session.Quantity,
		session.RejectQuantity,
		session.ReworkQuantity,
		session.Breaks.Morning,
		session.Breaks.Lunch,
		session.Breaks.Evening,
		session.DowntimeMinutes,
		nullString(session.DowntimeReason),
		session.WorkingMinutes,
		nullString(session.Remark),
		nullString(session.CreatedBy),
		session.CreatedAt.UTC().Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return &mes.SessionConflictError{
				PlanID:        session.PlanID,
				SessionNumber: session.SessionNumber,
			}
		}
		return fmt.Errorf("%w: failed to append session: %v", mes.ErrStorage, err)
	}

	return nil
}

// LoadSessions returns all sessions for a plan ordered by session number.
func (s *Store) LoadSessions(ctx context.Context, planID mes.PlanID) ([]mes.ProductionSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadSessions(ctx, s.db, planID)
}

func loadSessions(ctx context.Context, q queryer, planID mes.PlanID) ([]mes.ProductionSession, error) {
	query := `
		SELECT id, plan_id, session_number, actual_start, actual_end, quantity,
		       reject_quantity, rework_quantity, break_morning, break_lunch,
		       break_evening, downtime_minutes, downtime_reason, working_minutes,
		       remark, created_by, created_at
		FROM sessions
		WHERE plan_id = ?
		ORDER BY session_number ASC
	`

	rows, err := q.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query sessions: %v", mes.ErrStorage, err)
	}
	defer rows.Close()

	var sessions []mes.ProductionSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func scanSession(rows *sql.Rows) (mes.ProductionSession, error) {
	var (
		session                           mes.ProductionSession
		actualStart, actualEnd, createdAt string
		downtimeReason, remark, createdBy sql.NullString
	)

	err := rows.Scan(
		&session.ID, &session.PlanID, &session.SessionNumber,
		&actualStart, &actualEnd, &session.Quantity,
		&session.RejectQuantity, &session.ReworkQuantity,
		&session.Breaks.Morning, &session.Breaks.Lunch, &session.Breaks.Evening,
		&session.DowntimeMinutes, &downtimeReason, &session.WorkingMinutes,
		&remark, &createdBy, &createdAt,
	)
	if err != nil {
		return session, fmt.Errorf("failed to scan session: %w", err)
	}

	session.ActualStart, _ = time.Parse(time.RFC3339, actualStart)
	session.ActualEnd, _ = time.Parse(time.RFC3339, actualEnd)
	session.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	session.DowntimeReason = downtimeReason.String
	session.Remark = remark.String
	session.CreatedBy = createdBy.String

	return session, nil
}

// MaxSessionNumber returns the highest assigned number for a plan.
func (s *Store) MaxSessionNumber(ctx context.Context, planID mes.PlanID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maxSessionNumber(ctx, s.db, planID)
}

func maxSessionNumber(ctx context.Context, q queryer, planID mes.PlanID) (int, error) {
	var max int
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(session_number), 0) FROM sessions WHERE plan_id = ?",
		planID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read max session number: %v", mes.ErrStorage, err)
	}
	return max, nil
}

// =============================================================================
// PLAN STORE (mes.PlanStore interface)
// =============================================================================

// SavePlan inserts or updates a plan header.
func (s *Store) SavePlan(ctx context.Context, p mes.ProductionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePlan(ctx, s.db, p)
}

func savePlan(ctx context.Context, q queryer, p mes.ProductionPlan) error {
	query := `
		INSERT INTO plans (id, name, machine_id, target_output, standard_run_rate,
			status, confirmed_output, default_break_morning, default_break_lunch,
			default_break_evening, default_downtime, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			machine_id = excluded.machine_id,
			target_output = excluded.target_output,
			standard_run_rate = excluded.standard_run_rate,
			status = excluded.status,
			default_break_morning = excluded.default_break_morning,
			default_break_lunch = excluded.default_break_lunch,
			default_break_evening = excluded.default_break_evening,
			default_downtime = excluded.default_downtime,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := now
	if !p.CreatedAt.IsZero() {
		createdAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}

	_, err := q.ExecContext(ctx, query,
		p.ID, p.Name, p.MachineID, p.TargetOutput, p.StandardRunRate.String(),
		p.Status, p.ConfirmedOutput,
		p.DefaultBreaks.Morning, p.DefaultBreaks.Lunch, p.DefaultBreaks.Evening,
		p.DefaultDowntime, createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to save plan: %v", mes.ErrStorage, err)
	}
	return nil
}

// GetPlan retrieves a plan by ID. Returns (nil, nil) when absent.
func (s *Store) GetPlan(ctx context.Context, planID mes.PlanID) (*mes.ProductionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPlan(ctx, s.db, planID)
}

func getPlan(ctx context.Context, q queryer, planID mes.PlanID) (*mes.ProductionPlan, error) {
	query := `
		SELECT id, name, machine_id, target_output, standard_run_rate, status,
		       confirmed_output, default_break_morning, default_break_lunch,
		       default_break_evening, default_downtime, created_at, updated_at
		FROM plans WHERE id = ?
	`

	var (
		p                    mes.ProductionPlan
		machineID            sql.NullString
		runRate              string
		createdAt, updatedAt string
	)

	err := q.QueryRowContext(ctx, query, planID).Scan(
		&p.ID, &p.Name, &machineID, &p.TargetOutput, &runRate, &p.Status,
		&p.ConfirmedOutput, &p.DefaultBreaks.Morning, &p.DefaultBreaks.Lunch,
		&p.DefaultBreaks.Evening, &p.DefaultDowntime, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get plan: %v", mes.ErrStorage, err)
	}

	p.MachineID = machineID.String
	p.StandardRunRate = mustDecimal(runRate)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// SetPlanStatus writes a status transition.
func (s *Store) SetPlanStatus(ctx context.Context, planID mes.PlanID, status mes.PlanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setPlanStatus(ctx, s.db, planID, status)
}

func setPlanStatus(ctx context.Context, q queryer, planID mes.PlanID, status mes.PlanStatus) error {
	res, err := q.ExecContext(ctx,
		"UPDATE plans SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC().Format(time.RFC3339), planID,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to set plan status: %v", mes.ErrStorage, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mes.ErrPlanNotFound
	}
	return nil
}

// SetConfirmedOutput writes the finalized total back to the plan.
func (s *Store) SetConfirmedOutput(ctx context.Context, planID mes.PlanID, totalPieces int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setConfirmedOutput(ctx, s.db, planID, totalPieces)
}

func setConfirmedOutput(ctx context.Context, q queryer, planID mes.PlanID, totalPieces int64) error {
	res, err := q.ExecContext(ctx,
		"UPDATE plans SET confirmed_output = ?, updated_at = ? WHERE id = ?",
		totalPieces, time.Now().UTC().Format(time.RFC3339), planID,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to set confirmed output: %v", mes.ErrStorage, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mes.ErrPlanNotFound
	}
	return nil
}

// ListPlansByStatus returns plans in any of the given statuses.
func (s *Store) ListPlansByStatus(ctx context.Context, statuses ...mes.PlanStatus) ([]mes.ProductionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPlansByStatus(ctx, s.db, statuses...)
}

func listPlansByStatus(ctx context.Context, q queryer, statuses ...mes.PlanStatus) ([]mes.ProductionPlan, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	query := `
		SELECT id, name, machine_id, target_output, standard_run_rate, status,
		       confirmed_output, default_break_morning, default_break_lunch,
		       default_break_evening, default_downtime, created_at, updated_at
		FROM plans
		WHERE status IN (` + placeholders + `)
		ORDER BY created_at ASC, id ASC
	`

	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = st
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list plans: %v", mes.ErrStorage, err)
	}
	defer rows.Close()

	var plans []mes.ProductionPlan
	for rows.Next() {
		var (
			p                    mes.ProductionPlan
			machineID            sql.NullString
			runRate              string
			createdAt, updatedAt string
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &machineID, &p.TargetOutput, &runRate, &p.Status,
			&p.ConfirmedOutput, &p.DefaultBreaks.Morning, &p.DefaultBreaks.Lunch,
			&p.DefaultBreaks.Evening, &p.DefaultDowntime, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		p.MachineID = machineID.String
		p.StandardRunRate = mustDecimal(runRate)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// ListPlans returns every plan regardless of status (admin/demo view).
func (s *Store) ListPlans(ctx context.Context) ([]mes.ProductionPlan, error) {
	return s.ListPlansByStatus(ctx,
		mes.StatusPlanning, mes.StatusInProgress, mes.StatusPendingConfirmation,
		mes.StatusCompleted, mes.StatusCancelled)
}

// =============================================================================
// RESULT STORE (mes.ResultStore interface)
// =============================================================================

// UpsertResult inserts the result row or updates it in place. The unique
// index on plan_id guarantees at most one row per plan.
func (s *Store) UpsertResult(ctx context.Context, r mes.ProductionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertResult(ctx, s.db, r)
}

func upsertResult(ctx context.Context, q queryer, r mes.ProductionResult) error {
	query := `
		INSERT INTO results (id, plan_id, session_count, total_produced,
			total_rejects, total_rework, total_working_minutes, total_downtime,
			oee_availability, oee_performance, oee_quality, oee_overall,
			clamped_metrics, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(plan_id) DO UPDATE SET
			session_count = excluded.session_count,
			total_produced = excluded.total_produced,
			total_rejects = excluded.total_rejects,
			total_rework = excluded.total_rework,
			total_working_minutes = excluded.total_working_minutes,
			total_downtime = excluded.total_downtime,
			oee_availability = excluded.oee_availability,
			oee_performance = excluded.oee_performance,
			oee_quality = excluded.oee_quality,
			oee_overall = excluded.oee_overall,
			clamped_metrics = excluded.clamped_metrics,
			finalized_at = excluded.finalized_at
	`

	_, err := q.ExecContext(ctx, query,
		r.ID, r.PlanID, r.SessionCount, r.TotalProduced,
		r.TotalRejects, r.TotalRework, r.TotalWorkingMinutes, r.TotalDowntime,
		r.OEE.Availability.String(), r.OEE.Performance.String(),
		r.OEE.Quality.String(), r.OEE.Overall.String(),
		nullString(strings.Join(r.OEE.ClampedMetrics, ",")),
		r.FinalizedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert result: %v", mes.ErrStorage, err)
	}
	return nil
}

// GetResult retrieves the finalization rollup. Returns (nil, nil) when the
// plan has not been finalized.
func (s *Store) GetResult(ctx context.Context, planID mes.PlanID) (*mes.ProductionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getResult(ctx, s.db, planID)
}

func getResult(ctx context.Context, q queryer, planID mes.PlanID) (*mes.ProductionResult, error) {
	query := `
		SELECT id, plan_id, session_count, total_produced, total_rejects,
		       total_rework, total_working_minutes, total_downtime,
		       oee_availability, oee_performance, oee_quality, oee_overall,
		       clamped_metrics, finalized_at
		FROM results WHERE plan_id = ?
	`

	var (
		r                                           mes.ProductionResult
		availability, performance, quality, overall string
		clamped                                     sql.NullString
		finalizedAt                                 string
	)

	err := q.QueryRowContext(ctx, query, planID).Scan(
		&r.ID, &r.PlanID, &r.SessionCount, &r.TotalProduced, &r.TotalRejects,
		&r.TotalRework, &r.TotalWorkingMinutes, &r.TotalDowntime,
		&availability, &performance, &quality, &overall,
		&clamped, &finalizedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get result: %v", mes.ErrStorage, err)
	}

	r.OEE.Availability = mustDecimal(availability)
	r.OEE.Performance = mustDecimal(performance)
	r.OEE.Quality = mustDecimal(quality)
	r.OEE.Overall = mustDecimal(overall)
	if clamped.Valid && clamped.String != "" {
		r.OEE.ClampedMetrics = strings.Split(clamped.String, ",")
	}
	r.FinalizedAt, _ = time.Parse(time.RFC3339, finalizedAt)
	return &r, nil
}

// =============================================================================
// TRANSACTIONAL STORE (mes.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. The write lock
// is held for the whole callback, serializing session numbering and
// finalization in-process; the unique indexes back this up across processes.
func (s *Store) WithTx(ctx context.Context, fn func(store mes.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", mes.ErrStorage, err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", mes.ErrStorage, err)
	}
	return nil
}

// txStore routes every operation through the open transaction, without
// re-taking the store lock WithTx already holds.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) AppendSession(ctx context.Context, session mes.ProductionSession) error {
	return appendSession(ctx, ts.tx, session)
}

func (ts *txStore) LoadSessions(ctx context.Context, planID mes.PlanID) ([]mes.ProductionSession, error) {
	return loadSessions(ctx, ts.tx, planID)
}

func (ts *txStore) MaxSessionNumber(ctx context.Context, planID mes.PlanID) (int, error) {
	return maxSessionNumber(ctx, ts.tx, planID)
}

func (ts *txStore) GetPlan(ctx context.Context, planID mes.PlanID) (*mes.ProductionPlan, error) {
	return getPlan(ctx, ts.tx, planID)
}

func (ts *txStore) SavePlan(ctx context.Context, p mes.ProductionPlan) error {
	return savePlan(ctx, ts.tx, p)
}

func (ts *txStore) SetPlanStatus(ctx context.Context, planID mes.PlanID, status mes.PlanStatus) error {
	return setPlanStatus(ctx, ts.tx, planID, status)
}

func (ts *txStore) SetConfirmedOutput(ctx context.Context, planID mes.PlanID, totalPieces int64) error {
	return setConfirmedOutput(ctx, ts.tx, planID, totalPieces)
}

func (ts *txStore) ListPlansByStatus(ctx context.Context, statuses ...mes.PlanStatus) ([]mes.ProductionPlan, error) {
	return listPlansByStatus(ctx, ts.tx, statuses...)
}

func (ts *txStore) UpsertResult(ctx context.Context, r mes.ProductionResult) error {
	return upsertResult(ctx, ts.tx, r)
}

func (ts *txStore) GetResult(ctx context.Context, planID mes.PlanID) (*mes.ProductionResult, error) {
	return getResult(ctx, ts.tx, planID)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"sessions", "results", "plans"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
