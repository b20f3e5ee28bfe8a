package shipper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/common/expfmt"
)

// PushgatewaySink replaces the metric group {namespace} on a Prometheus
// Pushgateway (or the bundled server) with one PUT per batch.
type PushgatewaySink struct {
	http     *resty.Client
	endpoint string
}

// NewPushgateway returns a sink pushing to endpoint, e.g. http://localhost:9091.
// headers are attached to every request (API key).
func NewPushgateway(endpoint string, hc *http.Client, headers map[string]string) *PushgatewaySink {
	rc := resty.NewWithClient(hc).SetHeaders(headers)
	return &PushgatewaySink{http: rc, endpoint: strings.TrimRight(endpoint, "/")}
}

func (p *PushgatewaySink) Name() string { return "pushgateway" }

// GroupURL returns the push URL for namespace.
func (p *PushgatewaySink) GroupURL(namespace string) string {
	return p.endpoint + "/metrics/job/" + url.PathEscape(namespace)
}

// Send encodes events in the text exposition format and PUTs them, replacing
// the whole group atomically.
func (p *PushgatewaySink) Send(ctx context.Context, namespace string, events []Event) error {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, format)
	for _, mf := range toMetricFamilies(events) {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}

	target := p.GroupURL(namespace)
	res, err := p.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", string(format)).
		SetBody(buf.Bytes()).
		Put(target)
	if err != nil {
		return fmt.Errorf("put %s: %w", target, err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("put %s: unexpected status %d: %s",
			target, res.StatusCode(), strings.TrimSpace(res.String()))
	}
	return nil
}
