// Package store holds the metric groups pushed to the server, keyed by job,
// with TTL eviction. Only the latest push per job is kept.
package store
