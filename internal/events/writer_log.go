package events

import (
	"context"

	"go.uber.org/zap"
)

// LogWriter writes events to the process log.
type LogWriter struct{}

func (s *LogWriter) Write(ctx context.Context, topic string, e Event) error {
	zap.S().Named("events").Infow("event",
		"topic", topic,
		"id", e.ID,
		"kind", e.Kind,
		"data", string(e.Data),
	)
	return nil
}

func (s *LogWriter) Close(_ context.Context) error {
	return nil
}
