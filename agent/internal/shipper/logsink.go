package shipper

import (
	"context"
	"log/slog"
)

// LogSink writes events to the logger instead of a metrics backend.
// Useful for dry runs.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Name() string { return "log" }

func (l *LogSink) Send(ctx context.Context, namespace string, events []Event) error {
	for _, e := range events {
		args := []any{"namespace", namespace, "metric", e.Name, "value", e.Value.String()}
		for _, lb := range e.Labels {
			args = append(args, lb.Name, lb.Value)
		}
		l.logger.InfoContext(ctx, "shipper: event", args...)
	}
	return nil
}
