package monitor

import (
	"context"
	"log/slog"
)

// LogSink writes alerts to the structured log. It is the sink every
// deployment carries.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink over the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, alert Alert) error {
	s.logger.Warn("bias alert",
		slog.String("alert_id", alert.ID),
		slog.String("session_id", alert.SessionID),
		slog.String("level", string(alert.Level)),
		slog.Float64("score", alert.Score),
		slog.Float64("confidence", alert.Confidence),
	)
	return nil
}

// ChannelSink forwards alerts to a channel, for tests and embedders that
// want to consume alerts programmatically. Delivery does not block: if the
// channel is full the alert is dropped.
type ChannelSink struct {
	ch chan Alert
}

// NewChannelSink creates a sink buffering up to size alerts.
func NewChannelSink(size int) *ChannelSink {
	if size <= 0 {
		size = 16
	}
	return &ChannelSink{ch: make(chan Alert, size)}
}

func (s *ChannelSink) Name() string { return "channel" }

// Alerts returns the receive side of the sink.
func (s *ChannelSink) Alerts() <-chan Alert { return s.ch }

func (s *ChannelSink) Deliver(ctx context.Context, alert Alert) error {
	select {
	case s.ch <- alert:
	default:
	}
	return nil
}
