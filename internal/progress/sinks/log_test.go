package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shaileshms05/learnXAI/internal/progress"
)

func TestLogSinkLevels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core))
	runID := uuid.New()
	now := time.Now()

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: now, Type: progress.TypeSourceComplete, Source: "indeed", Count: 4, Strategy: "static"},
		{RunID: runID, TS: now, Type: progress.TypeSourceError, Source: "linkedin", Error: "unavailable"},
	}))

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.EqualValues(t, 4, entries[0].ContextMap()["count"])
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "unavailable", entries[1].ContextMap()["error"])
	require.NoError(t, sink.Close(context.Background()))
}
