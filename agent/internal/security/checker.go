package security

import (
	"context"
	"crypto/tls"
	"math"
	"net"
	"net/url"
	"time"

	"github.com/didacticeureka/didacticeureka/agent/internal/config"
)

// Certificate status values.
const (
	StatusValid       = "valid"
	StatusExpiring    = "expiring"
	StatusExpired     = "expired"
	StatusUnreachable = "unreachable"
)

// expiringWithin is the window in which a valid certificate is reported as expiring.
const expiringWithin = 30 * 24 * time.Hour

// CertStatus describes the leaf certificate served by a TLS endpoint.
type CertStatus struct {
	Endpoint string
	Status   string
	Issuer   string
	NotAfter time.Time
	DaysLeft int
	Err      error
}

// LogAttrs returns the status as slog key/value pairs.
func (c *CertStatus) LogAttrs() []any {
	attrs := []any{"endpoint", c.Endpoint, "status", c.Status}
	if c.Status != StatusUnreachable {
		attrs = append(attrs,
			"issuer", c.Issuer,
			"not_after", c.NotAfter.UTC().Format(time.RFC3339),
			"days_left", c.DaysLeft,
		)
	}
	if c.Err != nil {
		attrs = append(attrs, "err", c.Err)
	}
	return attrs
}

// Check dials the host of the source index URL and returns a CertStatus
// describing its leaf certificate.
//
// Returns nil for non-HTTPS URLs. Uses a 10-second dial timeout so a slow
// host does not hold up startup.
func Check(ctx context.Context, src config.SourceConfig) *CertStatus {
	return check(ctx, src, time.Now)
}

func check(ctx context.Context, src config.SourceConfig, now func() time.Time) *CertStatus {
	u, err := url.Parse(src.IndexURL)
	if err != nil || u.Scheme != "https" {
		return nil
	}

	cs := &CertStatus{Endpoint: u.Host}

	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "443")
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config: &tls.Config{
			InsecureSkipVerify: src.TLS.InsecureSkipVerify, //nolint:gosec
		},
	}

	netConn, err := dialer.DialContext(dialCtx, "tcp", host)
	if err != nil {
		cs.Status = StatusUnreachable
		cs.Err = err
		return cs
	}
	conn := netConn.(*tls.Conn)
	defer conn.Close()

	peerCerts := conn.ConnectionState().PeerCertificates
	if len(peerCerts) == 0 {
		cs.Status = StatusUnreachable
		return cs
	}

	leaf := peerCerts[0]
	left := leaf.NotAfter.Sub(now())

	cs.NotAfter = leaf.NotAfter
	cs.Issuer = leaf.Issuer.CommonName
	cs.DaysLeft = int(math.Floor(left.Hours() / 24))

	switch {
	case left <= 0:
		cs.Status = StatusExpired
	case left <= expiringWithin:
		cs.Status = StatusExpiring
	default:
		cs.Status = StatusValid
	}
	return cs
}
