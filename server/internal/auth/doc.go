// Package auth provides authentication middleware for the metrics server.
//
// APIKey(mode, header, key, next) wraps an http.Handler and validates the API
// key from the named request header. The server applies it to the push
// endpoints only; reads are open.
//
// When mode != "apikey" or key == "", all requests pass through (useful for
// local development with auth disabled). When the key is incorrect or absent,
// the middleware answers 401 immediately.
package auth
