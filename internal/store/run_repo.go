package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested run does not exist.
var ErrNotFound = errors.New("harvest run not found")

// RunStatus mirrors the harvest_runs.status column.
type RunStatus string

// Run statuses.
const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// Run is one harvest call.
type Run struct {
	ID           uuid.UUID
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       RunStatus
	TotalResults int
	ErrorMessage *string
}

// SourceRecord is the outcome of one source within a run.
type SourceRecord struct {
	RunID      uuid.UUID
	Source     string
	Status     string
	Strategy   string
	Count      int
	Reason     string
	Elapsed    time.Duration
	RecordedAt time.Time
}

// RunRepository persists harvest runs and their per-source diagnostics.
type RunRepository interface {
	// StartRun inserts the run as running; repeating it is harmless.
	StartRun(ctx context.Context, runID uuid.UUID, startedAt time.Time) error
	// RecordSource upserts the outcome of one source.
	RecordSource(ctx context.Context, rec SourceRecord) error
	// CompleteRun marks the run finished.
	CompleteRun(
		ctx context.Context,
		runID uuid.UUID,
		finishedAt time.Time,
		status RunStatus,
		total int,
		errMsg *string,
	) error

	// GetRun loads a run or returns ErrNotFound.
	GetRun(ctx context.Context, runID uuid.UUID) (Run, error)
	// ListRuns returns runs newest first, optionally filtered by status.
	ListRuns(ctx context.Context, status *RunStatus, limit, offset int) ([]Run, error)
	// ListRunSources returns the source outcomes of a run in record order.
	ListRunSources(ctx context.Context, runID uuid.UUID) ([]SourceRecord, error)
}
