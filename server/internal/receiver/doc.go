// Package receiver implements the push side of the metrics server. It speaks
// the Prometheus Pushgateway protocol for the job grouping key:
// PUT and POST /metrics/job/{job} with a text or protobuf body, and DELETE.
//
// Authentication is enforced upstream by the auth middleware, so the receiver
// itself only performs structural validation.
//
// New(st) wires the receiver to the given group store.
package receiver
