package sinks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shaileshms05/learnXAI/internal/opportunity"
	"github.com/shaileshms05/learnXAI/internal/progress"
	"github.com/shaileshms05/learnXAI/internal/store"
)

// StoreSink persists runs and per-source diagnostics through a
// store.RunRepository.
type StoreSink struct {
	repo   store.RunRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for repo.
func NewStoreSink(repo store.RunRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// Consume writes the batch in order and stops at the first repository error.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	for _, evt := range batch {
		if err := s.consume(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (s *StoreSink) consume(ctx context.Context, evt progress.Event) error {
	switch {
	case evt.IsStart():
		if err := s.repo.StartRun(ctx, evt.RunID, evt.TS); err != nil {
			return fmt.Errorf("start run: %w", err)
		}
	case evt.Type == progress.TypeSourceComplete, evt.Type == progress.TypeSourceError:
		rec := store.SourceRecord{
			RunID:      evt.RunID,
			Source:     evt.Source,
			Status:     string(opportunity.DiagnosticOK),
			Strategy:   evt.Strategy,
			Count:      evt.Count,
			Elapsed:    evt.Dur,
			RecordedAt: evt.TS,
		}
		if evt.Type == progress.TypeSourceError {
			rec.Status = string(opportunity.DiagnosticError)
			rec.Reason = evt.Error
		}
		if err := s.repo.RecordSource(ctx, rec); err != nil {
			return fmt.Errorf("record source: %w", err)
		}
	case evt.Type == progress.TypeComplete:
		total := 0
		if evt.Result != nil {
			total = evt.Result.TotalResults
		}
		if err := s.repo.CompleteRun(ctx, evt.RunID, evt.TS, store.RunSuccess, total, nil); err != nil {
			return fmt.Errorf("complete run: %w", err)
		}
	case evt.Type == progress.TypeError:
		msg := evt.Message
		err := s.repo.CompleteRun(ctx, evt.RunID, evt.TS, store.RunError, 0, &msg)
		// Rejected requests fail before a run is ever started.
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("complete run: %w", err)
		}
	}
	return nil
}

// Close implements progress.Sink.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
