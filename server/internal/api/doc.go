// Package api implements the read side of the metrics server.
//
// New(store) returns an http.Handler that serves:
//
//	GET /metrics                Prometheus exposition of every live group,
//	                            with a job label and push_time_seconds
//	GET /api/v1/health          status, live group count, last push time
//	GET /api/v1/groups          all live groups (GroupsResponse)
//	GET /api/v1/groups/{job}    single group; 404 if unknown or stale
//
// JSON endpoints respond with Content-Type: application/json. Other methods
// get 405 from the mux. Stale groups are excluded everywhere.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
