package shipper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/didacticeureka/didacticeureka/agent/internal/config"
	"github.com/didacticeureka/didacticeureka/pkg/types"
)

// Sink receives one batch of events per pipeline run. A Sink must deliver the
// batch in a single request so the run is all-or-nothing.
type Sink interface {
	// Name identifies the sink in logs and errors.
	Name() string
	Send(ctx context.Context, namespace string, events []Event) error
}

// Shipper converts a types.Result into metric events and hands them to a Sink.
// There is no buffer and no retry: a failed Send fails the run.
type Shipper struct {
	namespace string
	sink      Sink
	logger    *slog.Logger
}

// New returns a Shipper publishing under namespace through sink.
func New(namespace string, sink Sink, logger *slog.Logger) *Shipper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shipper{namespace: namespace, sink: sink, logger: logger}
}

// FromConfig builds the Sink selected by cfg.Sink and wraps it in a Shipper.
func FromConfig(cfg config.PublisherConfig, logger *slog.Logger) (*Shipper, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var sink Sink
	switch cfg.Sink {
	case "pushgateway":
		sink = NewPushgateway(cfg.Endpoint, instrumentedClient(cfg.Timeout), cfg.Auth.Headers())
	case "otlp":
		sink = NewOTLP(cfg.Endpoint, cfg.Timeout, cfg.Auth.Headers())
	case "log":
		sink = NewLogSink(logger)
	default:
		return nil, fmt.Errorf("shipper: unknown sink %q", cfg.Sink)
	}
	return New(cfg.Namespace, sink, logger), nil
}

// Ship publishes the six events derived from res in one Send call.
// Any sink failure is reported as types.ErrPublishFailed.
func (s *Shipper) Ship(ctx context.Context, res types.Result) error {
	events := Events(res)

	start := time.Now()
	if err := s.sink.Send(ctx, s.namespace, events); err != nil {
		return fmt.Errorf("shipper: %s: %w: %w", s.sink.Name(), types.ErrPublishFailed, err)
	}

	s.logger.InfoContext(ctx, "shipper: published",
		"sink", s.sink.Name(),
		"namespace", s.namespace,
		"events", len(events),
		"elapsed", time.Since(start),
	)
	return nil
}

// Namespace returns the namespace every event is published under.
func (s *Shipper) Namespace() string {
	return s.namespace
}

func instrumentedClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}
