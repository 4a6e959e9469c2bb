// Package store provides PostgreSQL persistence for extraction runs and
// their per-phase results. Persistence is optional: callers that were not
// configured with a database hold a nil *Store and skip recording.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database and ensures the
// schema exists.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS extraction_runs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			source_url TEXT NOT NULL DEFAULT '',
			source_title TEXT NOT NULL DEFAULT '',
			strategy TEXT NOT NULL,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS run_results (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			run_id UUID NOT NULL REFERENCES extraction_runs(id) ON DELETE CASCADE,
			phase TEXT NOT NULL,
			content JSONB,
			text_content TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, phase)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extraction_runs_created_at
			ON extraction_runs (created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CreateRun records a new extraction run and returns its ID.
func (s *Store) CreateRun(ctx context.Context, sourceURL, sourceTitle, strategy, mode string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO extraction_runs (source_url, source_title, strategy, mode, status)
		 VALUES ($1, $2, $3, $4, 'running')
		 RETURNING id`,
		sourceURL, sourceTitle, strategy, mode,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks an extraction run as finished with the given status.
func (s *Store) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE extraction_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveResult stores a JSON result for one phase of a run, replacing any
// earlier result for the same phase.
func (s *Store) SaveResult(ctx context.Context, runID uuid.UUID, phase string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO run_results (run_id, phase, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, phase) DO UPDATE SET content = $3, created_at = NOW()`,
		runID, phase, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", phase, err)
	}
	return nil
}

// SaveText stores a text result (such as the raw source text) for one phase
// of a run.
func (s *Store) SaveText(ctx context.Context, runID uuid.UUID, phase, text string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_results (run_id, phase, text_content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, phase) DO UPDATE SET text_content = $3, created_at = NOW()`,
		runID, phase, text,
	)
	if err != nil {
		return fmt.Errorf("failed to save text result %s: %w", phase, err)
	}
	return nil
}

// GetResult retrieves the JSON result for one phase of a run. Returns nil
// when no result was stored for the phase.
func (s *Store) GetResult(ctx context.Context, runID uuid.UUID, phase string) ([]byte, error) {
	var content []byte
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM run_results WHERE run_id = $1 AND phase = $2`,
		runID, phase,
	).Scan(&content)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result %s: %w", phase, err)
	}
	return content, nil
}

// GetText retrieves the text result for one phase of a run. Returns "" when
// no result was stored for the phase.
func (s *Store) GetText(ctx context.Context, runID uuid.UUID, phase string) (string, error) {
	var text string
	err := s.pool.QueryRow(ctx,
		`SELECT text_content FROM run_results WHERE run_id = $1 AND phase = $2`,
		runID, phase,
	).Scan(&text)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get text result %s: %w", phase, err)
	}
	return text, nil
}

// GetRun retrieves an extraction run by ID. Returns nil when no run exists.
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, source_url, source_title, strategy, mode, status, created_at, completed_at
		 FROM extraction_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.SourceURL, &run.SourceTitle, &run.Strategy, &run.Mode,
		&run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent extraction runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source_url, source_title, strategy, mode, status, created_at, completed_at
		 FROM extraction_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.SourceURL, &run.SourceTitle, &run.Strategy,
			&run.Mode, &run.Status, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ListRunsFiltered retrieves runs with optional filters.
func (s *Store) ListRunsFiltered(ctx context.Context, filters RunFilters) ([]Run, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT id, source_url, source_title, strategy, mode, status, created_at, completed_at
		FROM extraction_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Source != "" {
		query += fmt.Sprintf(" AND source_url ILIKE $%d", argNum)
		args = append(args, "%"+filters.Source+"%")
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.SourceURL, &run.SourceTitle, &run.Strategy,
			&run.Mode, &run.Status, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ListResults summarizes the stored results for one run, oldest first.
func (s *Store) ListResults(ctx context.Context, runID uuid.UUID) ([]ResultSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT phase, content IS NOT NULL AS has_json, text_content IS NOT NULL AS has_text, created_at
		 FROM run_results WHERE run_id = $1 ORDER BY created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []ResultSummary
	for rows.Next() {
		var r ResultSummary
		if err := rows.Scan(&r.Phase, &r.HasJSON, &r.HasText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

// DeleteRun deletes an extraction run and all its results (via cascade).
func (s *Store) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM extraction_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
