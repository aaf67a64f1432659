package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes event envelopes to the application log. Always wired so
// the audit trail survives even when no broker is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(_ context.Context, envelope Envelope) error {
	s.logger.Info("domain event",
		zap.String("event_type", envelope.EventType),
		zap.String("event_id", envelope.EventID.String()),
		zap.String("aggregate_type", envelope.AggregateType),
		zap.String("aggregate_id", envelope.AggregateID.String()),
		zap.Time("occurred_at", envelope.OccurredAt))
	return nil
}

var _ Sink = (*LogSink)(nil)
