package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store and applies migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			order_file TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			components INTEGER NOT NULL DEFAULT 0,
			succeeded INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS run_components (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			component_id TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			programs INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_programs (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			component_id TEXT NOT NULL,
			setup_name TEXT NOT NULL,
			program_number INTEGER NOT NULL,
			output_file TEXT NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_run_components_run ON run_components(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_run_programs_run ON run_programs(run_id);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run in its starting state.
func (s *PostgresStore) CreateRun(run Run) error {
	query := `INSERT INTO runs (id, order_id, order_file, status, message, components, succeeded, started_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.Exec(query, run.ID, run.OrderID, run.OrderFile, run.Status, run.Message, run.Components, run.Succeeded, run.StartedAt)
	return err
}

// FinishRun records the final status of a run.
func (s *PostgresStore) FinishRun(id, status, message string, succeeded int) error {
	query := `UPDATE runs SET status = $1, message = $2, succeeded = $3, finished_at = $4 WHERE id = $5`
	res, err := s.db.Exec(query, status, message, succeeded, time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// SaveComponent journals the outcome of one component.
func (s *PostgresStore) SaveComponent(rec ComponentRecord) error {
	query := `INSERT INTO run_components (run_id, component_id, status, message, programs, duration_ms, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(query, rec.RunID, rec.ComponentID, rec.Status, rec.Message, rec.Programs, rec.DurationMS, time.Now())
	return err
}

// SaveProgram journals one emitted NC program.
func (s *PostgresStore) SaveProgram(rec ProgramRecord) error {
	query := `INSERT INTO run_programs (run_id, component_id, setup_name, program_number, output_file, size_bytes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(query, rec.RunID, rec.ComponentID, rec.SetupName, rec.ProgramNumber, rec.OutputFile, rec.SizeBytes, time.Now())
	return err
}

// RecentRuns retrieves the most recent runs, newest first.
func (s *PostgresStore) RecentRuns(limit int) ([]Run, error) {
	query := `SELECT id, order_id, order_file, status, message, components, succeeded, started_at, finished_at
	          FROM runs ORDER BY started_at DESC LIMIT $1`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		var run Run
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.OrderID, &run.OrderFile, &run.Status, &run.Message, &run.Components, &run.Succeeded, &run.StartedAt, &finished); err != nil {
			return nil, err
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		results = append(results, run)
	}
	return results, rows.Err()
}

// GetRun retrieves a single run by its ID.
func (s *PostgresStore) GetRun(id string) (Run, error) {
	query := `SELECT id, order_id, order_file, status, message, components, succeeded, started_at, finished_at
	          FROM runs WHERE id = $1`
	var run Run
	var finished sql.NullTime
	err := s.db.QueryRow(query, id).Scan(&run.ID, &run.OrderID, &run.OrderFile, &run.Status, &run.Message, &run.Components, &run.Succeeded, &run.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return Run{}, err
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return run, nil
}

// RunComponents retrieves the component outcomes of one run in insert order.
func (s *PostgresStore) RunComponents(runID string) ([]ComponentRecord, error) {
	query := `SELECT id, run_id, component_id, status, message, programs, duration_ms, created_at
	          FROM run_components WHERE run_id = $1 ORDER BY id`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ComponentRecord
	for rows.Next() {
		var rec ComponentRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.ComponentID, &rec.Status, &rec.Message, &rec.Programs, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// RunPrograms retrieves the programs emitted by one run in insert order.
func (s *PostgresStore) RunPrograms(runID string) ([]ProgramRecord, error) {
	query := `SELECT id, run_id, component_id, setup_name, program_number, output_file, size_bytes, created_at
	          FROM run_programs WHERE run_id = $1 ORDER BY id`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ProgramRecord
	for rows.Next() {
		var rec ProgramRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.ComponentID, &rec.SetupName, &rec.ProgramNumber, &rec.OutputFile, &rec.SizeBytes, &rec.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
