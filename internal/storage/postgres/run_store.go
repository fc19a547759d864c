// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaileshms05/learnXAI/internal/store"
)

// Schema creates the tables RunStore writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS harvest_runs (
	id            UUID PRIMARY KEY,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ,
	status        TEXT NOT NULL,
	total_results INTEGER NOT NULL DEFAULT 0,
	error_message TEXT
);
CREATE TABLE IF NOT EXISTS harvest_run_sources (
	run_id        UUID NOT NULL REFERENCES harvest_runs (id) ON DELETE CASCADE,
	source        TEXT NOT NULL,
	status        TEXT NOT NULL,
	strategy      TEXT NOT NULL DEFAULT '',
	listing_count INTEGER NOT NULL DEFAULT 0,
	reason        TEXT NOT NULL DEFAULT '',
	elapsed_ms    BIGINT NOT NULL DEFAULT 0,
	recorded_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, source)
);`

// RunStoreConfig controls the connection pool.
type RunStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// RunStore implements store.RunRepository.
type RunStore struct {
	pool pool
}

var _ store.RunRepository = (*RunStore)(nil)

// NewRunStore connects to Postgres.
func NewRunStore(ctx context.Context, cfg RunStoreConfig) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: p}, nil
}

// NewRunStoreWithPool wraps an existing pool; tests pass a pgxmock pool.
func NewRunStoreWithPool(p pool) (*RunStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &RunStore{pool: p}, nil
}

// Close closes the underlying pool.
func (s *RunStore) Close() {
	s.pool.Close()
}

// Ping checks that the database is reachable.
func (s *RunStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema creates missing tables.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// StartRun implements store.RunRepository.
func (s *RunStore) StartRun(ctx context.Context, runID uuid.UUID, startedAt time.Time) error {
	const query = `
		INSERT INTO harvest_runs (id, started_at, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING;`
	if _, err := s.pool.Exec(ctx, query, runID, startedAt, string(store.RunRunning)); err != nil {
		return fmt.Errorf("insert harvest run: %w", err)
	}
	return nil
}

// RecordSource implements store.RunRepository.
func (s *RunStore) RecordSource(ctx context.Context, rec store.SourceRecord) error {
	const query = `
		INSERT INTO harvest_run_sources
			(run_id, source, status, strategy, listing_count, reason, elapsed_ms, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, source) DO UPDATE SET
			status = EXCLUDED.status,
			strategy = EXCLUDED.strategy,
			listing_count = EXCLUDED.listing_count,
			reason = EXCLUDED.reason,
			elapsed_ms = EXCLUDED.elapsed_ms,
			recorded_at = EXCLUDED.recorded_at;`
	_, err := s.pool.Exec(ctx, query,
		rec.RunID,
		rec.Source,
		rec.Status,
		rec.Strategy,
		rec.Count,
		rec.Reason,
		rec.Elapsed.Milliseconds(),
		rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert run source %s: %w", rec.Source, err)
	}
	return nil
}

// CompleteRun implements store.RunRepository.
func (s *RunStore) CompleteRun(
	ctx context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	total int,
	errMsg *string,
) error {
	const query = `
		UPDATE harvest_runs
		SET finished_at = $1, status = $2, total_results = $3, error_message = $4
		WHERE id = $5;`
	tag, err := s.pool.Exec(ctx, query, finishedAt, string(status), total, errMsg, runID)
	if err != nil {
		return fmt.Errorf("complete harvest run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete harvest run %s: %w", runID, store.ErrNotFound)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, status, total_results, error_message`

// GetRun implements store.RunRepository.
func (s *RunStore) GetRun(ctx context.Context, runID uuid.UUID) (store.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM harvest_runs WHERE id = $1;`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Run{}, store.ErrNotFound
		}
		return store.Run{}, fmt.Errorf("get harvest run: %w", err)
	}
	return run, nil
}

// ListRuns implements store.RunRepository.
func (s *RunStore) ListRuns(ctx context.Context, status *store.RunStatus, limit, offset int) ([]store.Run, error) {
	var filter *string
	if status != nil {
		v := string(*status)
		filter = &v
	}
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM harvest_runs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3;`, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list harvest runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan harvest run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate harvest runs: %w", err)
	}
	return runs, nil
}

// ListRunSources implements store.RunRepository.
func (s *RunStore) ListRunSources(ctx context.Context, runID uuid.UUID) ([]store.SourceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, source, status, strategy, listing_count, reason, elapsed_ms, recorded_at
		FROM harvest_run_sources
		WHERE run_id = $1
		ORDER BY recorded_at ASC;`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run sources: %w", err)
	}
	defer rows.Close()

	var out []store.SourceRecord
	for rows.Next() {
		var (
			rec       store.SourceRecord
			elapsedMS int64
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.Source,
			&rec.Status,
			&rec.Strategy,
			&rec.Count,
			&rec.Reason,
			&elapsedMS,
			&rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run source: %w", err)
		}
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run sources: %w", err)
	}
	return out, nil
}

func scanRun(row pgx.Row) (store.Run, error) {
	var (
		run    store.Run
		status string
	)
	if err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&status,
		&run.TotalResults,
		&run.ErrorMessage,
	); err != nil {
		return store.Run{}, err
	}
	run.Status = store.RunStatus(status)
	return run, nil
}
