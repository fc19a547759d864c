package sinks

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shaileshms05/learnXAI/internal/progress"
)

// LogSink writes one structured line per event.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event; source errors and run failures log at warn.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID.String()),
			zap.String("type", string(evt.Type)),
			zap.Int("progress", evt.Progress),
		}
		if evt.Source != "" {
			fields = append(fields, zap.String("source", evt.Source))
		}
		if evt.Strategy != "" {
			fields = append(fields, zap.String("strategy", evt.Strategy))
		}
		if evt.Type == progress.TypeSourceComplete {
			fields = append(fields, zap.Int("count", evt.Count))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("elapsed", evt.Dur))
		}
		if evt.Error != "" {
			fields = append(fields, zap.String("error", evt.Error))
		}
		if evt.Message != "" {
			fields = append(fields, zap.String("message", evt.Message))
		}
		level := zapcore.InfoLevel
		if evt.Type == progress.TypeSourceError || evt.Type == progress.TypeError {
			level = zapcore.WarnLevel
		}
		s.logger.Log(level, "harvest event", fields...)
	}
	return nil
}

// Close implements progress.Sink.
func (s *LogSink) Close(context.Context) error {
	return nil
}
