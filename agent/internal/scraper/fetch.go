package scraper

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/didacticeureka/didacticeureka/pkg/types"
)

// Download is a fetched resource held in memory.
type Download struct {
	URL  string
	Name string // last path element of URL, e.g. "rb20250821.csv"
	Body []byte
}

// Fetch performs a single GET of rawURL and returns the full body.
// Transport failures and non-2xx statuses are reported as
// types.ErrFetchFailed. There is no retry.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Download, error) {
	res, err := c.http.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("scraper: get %s: %w: %w", rawURL, types.ErrFetchFailed, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("scraper: get %s: %w: unexpected status %d", rawURL, types.ErrFetchFailed, res.StatusCode())
	}

	d := &Download{URL: rawURL, Body: res.Body()}
	if u, err := url.Parse(rawURL); err == nil {
		d.Name = path.Base(u.Path)
	}

	c.logger.DebugContext(ctx, "scraper: fetched",
		"url", rawURL,
		"status", res.StatusCode(),
		"bytes", len(d.Body),
		"elapsed", res.Time(),
	)
	return d, nil
}
