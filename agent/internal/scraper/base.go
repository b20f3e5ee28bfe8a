package scraper

import (
	"crypto/tls"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/didacticeureka/didacticeureka/agent/internal/config"
)

// Client performs the outbound GETs of a pipeline run: the index page and the
// settlement file. It is built once per config and reused across runs.
type Client struct {
	http     *resty.Client
	indexURL string
	logger   *slog.Logger
}

// New returns a Client for the given source configuration.
func New(src config.SourceConfig, logger *slog.Logger) *Client {
	return newClient(buildHTTPClient(src), src, logger)
}

// newClient wraps hc; tests pass an httptest server's client here.
func newClient(hc *http.Client, src config.SourceConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rc := resty.NewWithClient(hc).
		SetTimeout(src.Timeout).
		SetHeader("User-Agent", src.UserAgent)
	return &Client{http: rc, indexURL: src.IndexURL, logger: logger}
}

// IndexURL returns the configured index page URL.
func (c *Client) IndexURL() string {
	return c.indexURL
}

// buildHTTPClient constructs an http.Client for the source's TLS settings.
// The transport is instrumented with otelhttp so outbound requests show up
// in traces when a tracer provider is installed.
func buildHTTPClient(src config.SourceConfig) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: src.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(base),
		Timeout:   src.Timeout,
	}
}
