package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/didacticeureka/didacticeureka/pkg/types"
)

// csvMarker is matched anywhere in an anchor's href, so query strings and
// fragments after the extension still count.
const csvMarker = ".csv"

// Locate scans an HTML document for the first anchor whose href contains
// ".csv" and returns it as an absolute URL, resolving relative links against
// pageURL. Anchors with unparsable hrefs are skipped.
func Locate(page []byte, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("scraper: parse page url %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("scraper: parse index page: %w", err)
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if !strings.Contains(href, csvMarker) {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		found = base.ResolveReference(ref).String()
		return false
	})

	if found == "" {
		return "", fmt.Errorf("scraper: %s: %w", pageURL, types.ErrLinkNotFound)
	}
	return found, nil
}

// LocateCSV fetches the configured index page and returns the URL of the
// settlement file it links to.
func (c *Client) LocateCSV(ctx context.Context) (string, error) {
	page, err := c.Fetch(ctx, c.indexURL)
	if err != nil {
		return "", err
	}
	link, err := Locate(page.Body, c.indexURL)
	if err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "scraper: csv link located", "url", link)
	return link, nil
}
