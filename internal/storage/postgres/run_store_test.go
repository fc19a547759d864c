package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/shaileshms05/learnXAI/internal/store"
)

func newMockStore(t *testing.T) (*RunStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool() // pgxmock v4 always monitors pings
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	s, err := NewRunStoreWithPool(mock)
	require.NoError(t, err)
	return s, mock
}

func TestRunStoreLifecycle(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	runID := uuid.New()
	start := time.Unix(1700000000, 0).UTC()
	done := start.Add(4 * time.Second)

	mock.ExpectExec("INSERT INTO harvest_runs").
		WithArgs(runID, start, "running").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO harvest_run_sources").
		WithArgs(runID, "indeed", "ok", "static", 3, "", int64(1500), start.Add(2*time.Second)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE harvest_runs").
		WithArgs(done, "success", 3, (*string)(nil), runID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx := context.Background()
	require.NoError(t, s.StartRun(ctx, runID, start))
	require.NoError(t, s.RecordSource(ctx, store.SourceRecord{
		RunID:      runID,
		Source:     "indeed",
		Status:     "ok",
		Strategy:   "static",
		Count:      3,
		Elapsed:    1500 * time.Millisecond,
		RecordedAt: start.Add(2 * time.Second),
	}))
	require.NoError(t, s.CompleteRun(ctx, runID, done, store.RunSuccess, 3, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStoreCompleteUnknownRun(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec("UPDATE harvest_runs").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), uuid.New(), time.Now(), store.RunError, 0, nil)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunStoreGetRun(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	runID := uuid.New()
	start := time.Unix(1700000000, 0).UTC()
	finished := start.Add(time.Minute)
	msg := "all sources failed"

	mock.ExpectQuery("SELECT id, started_at").
		WithArgs(runID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "started_at", "finished_at", "status", "total_results", "error_message",
		}).AddRow(runID, start, &finished, "error", 0, &msg))

	run, err := s.GetRun(context.Background(), runID)
	require.NoError(t, err)
	require.Equal(t, runID, run.ID)
	require.Equal(t, store.RunError, run.Status)
	require.Equal(t, finished, *run.FinishedAt)
	require.Equal(t, msg, *run.ErrorMessage)
}

func TestRunStoreGetRunNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, started_at").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunStoreListRunSources(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	runID := uuid.New()
	at := time.Unix(1700000000, 0).UTC()

	mock.ExpectQuery("FROM harvest_run_sources").
		WithArgs(runID).
		WillReturnRows(pgxmock.NewRows([]string{
			"run_id", "source", "status", "strategy", "listing_count", "reason", "elapsed_ms", "recorded_at",
		}).
			AddRow(runID, "indeed", "ok", "rendered", 4, "", int64(2300), at).
			AddRow(runID, "linkedin", "error", "", 0, "unavailable", int64(0), at.Add(time.Second)))

	recs, err := s.ListRunSources(context.Background(), runID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, 2300*time.Millisecond, recs[0].Elapsed)
	require.Equal(t, "unavailable", recs[1].Reason)
}

func TestRunStoreListRunsWrapsErrors(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	status := store.RunSuccess
	mock.ExpectQuery("FROM harvest_runs").
		WithArgs(pgxmock.AnyArg(), 10, 0).
		WillReturnError(errors.New("connection reset"))

	_, err := s.ListRuns(context.Background(), &status, 10, 0)
	require.ErrorContains(t, err, "list harvest runs")
}

func TestNewRunStoreValidates(t *testing.T) {
	t.Parallel()

	_, err := NewRunStore(context.Background(), RunStoreConfig{})
	require.Error(t, err)
	_, err = NewRunStoreWithPool(nil)
	require.Error(t, err)
}

func TestRunStorePing(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err := s.Ping(context.Background())
	require.ErrorContains(t, err, "ping postgres")
	require.ErrorContains(t, err, "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}
