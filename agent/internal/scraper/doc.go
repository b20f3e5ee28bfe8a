// Package scraper fetches the exchange's settlement-price publication.
//
// Locate(page, pageURL) scans an index page with goquery and returns the
// absolute URL of the first anchor whose href contains ".csv"; it fails with
// types.ErrLinkNotFound when there is none.
//
// Client wraps a resty client (browser User-Agent, per-request timeout,
// otelhttp transport). Client.Fetch performs exactly one GET and returns the
// body, or types.ErrFetchFailed on transport errors and non-2xx statuses.
// Client.LocateCSV combines the two for the configured index page.
package scraper
