package sinks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
	"github.com/shaileshms05/learnXAI/internal/progress"
	"github.com/shaileshms05/learnXAI/internal/store"
)

func TestStoreSinkPersistsRun(t *testing.T) {
	t.Parallel()

	repo := &fakeRunRepo{}
	sink := NewStoreSink(repo, nil)
	runID := uuid.New()
	now := time.Now()

	batch := []progress.Event{
		{RunID: runID, TS: now, Type: progress.TypeStatus, Progress: progress.ProgressStart},
		{RunID: runID, TS: now, Type: progress.TypeStatus, Progress: progress.ProgressOptimize},
		{RunID: runID, TS: now, Type: progress.TypeSourceComplete, Source: "indeed", Strategy: "feed", Count: 3},
		{RunID: runID, TS: now, Type: progress.TypeSourceError, Source: "linkedin", Error: "unavailable"},
		{
			RunID:  runID,
			TS:     now,
			Type:   progress.TypeComplete,
			Result: &opportunity.AggregatedResult{TotalResults: 3},
		},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, []uuid.UUID{runID}, repo.starts)
	require.Len(t, repo.sources, 2)
	require.Equal(t, "ok", repo.sources[0].Status)
	require.Equal(t, "feed", repo.sources[0].Strategy)
	require.Equal(t, "error", repo.sources[1].Status)
	require.Equal(t, "unavailable", repo.sources[1].Reason)
	require.Equal(t, []store.RunStatus{store.RunSuccess}, repo.completes)
	require.Equal(t, 3, repo.total)
}

func TestStoreSinkIgnoresFailureOfUnstartedRun(t *testing.T) {
	t.Parallel()

	repo := &fakeRunRepo{completeErr: store.ErrNotFound}
	sink := NewStoreSink(repo, nil)
	err := sink.Consume(context.Background(), []progress.Event{
		{RunID: uuid.New(), TS: time.Now(), Type: progress.TypeError, Message: "query is required"},
	})
	require.NoError(t, err)
}

func TestStoreSinkSurfacesRepositoryErrors(t *testing.T) {
	t.Parallel()

	repo := &fakeRunRepo{startErr: errors.New("db down")}
	sink := NewStoreSink(repo, nil)
	err := sink.Consume(context.Background(), []progress.Event{
		{RunID: uuid.New(), TS: time.Now(), Type: progress.TypeStatus},
	})
	require.ErrorContains(t, err, "db down")
}

type fakeRunRepo struct {
	startErr    error
	completeErr error

	starts    []uuid.UUID
	sources   []store.SourceRecord
	completes []store.RunStatus
	total     int
}

func (f *fakeRunRepo) StartRun(_ context.Context, runID uuid.UUID, _ time.Time) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts = append(f.starts, runID)
	return nil
}

func (f *fakeRunRepo) RecordSource(_ context.Context, rec store.SourceRecord) error {
	f.sources = append(f.sources, rec)
	return nil
}

func (f *fakeRunRepo) CompleteRun(
	_ context.Context,
	_ uuid.UUID,
	_ time.Time,
	status store.RunStatus,
	total int,
	_ *string,
) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completes = append(f.completes, status)
	f.total = total
	return nil
}

func (f *fakeRunRepo) GetRun(context.Context, uuid.UUID) (store.Run, error) {
	return store.Run{}, store.ErrNotFound
}

func (f *fakeRunRepo) ListRuns(context.Context, *store.RunStatus, int, int) ([]store.Run, error) {
	return nil, nil
}

func (f *fakeRunRepo) ListRunSources(context.Context, uuid.UUID) ([]store.SourceRecord, error) {
	return nil, nil
}
