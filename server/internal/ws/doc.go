// Package ws implements the WebSocket hub of the metrics server.
//
// Hub manages a set of connected clients. On connect a client receives the
// current live groups at once; afterwards the hub checks the store every
// interval (default 5s) and broadcasts only when the groups changed, which
// with a six-hourly push cadence keeps the stream quiet between pushes.
//
// Message format sent to clients:
//
//	{
//	  "event": "groups",
//	  "data":  { /* same schema as GET /api/v1/groups */ }
//	}
//
// The upgrader accepts all origins. The endpoint is mounted at /ws/stream.
package ws
