package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status     string `json:"status"`
	GroupCount int    `json:"group_count"`
	LastPush   string `json:"last_push,omitempty"` // RFC3339
}

// GroupResponse is one pushed group in GET /api/v1/groups or
// GET /api/v1/groups/{job}.
type GroupResponse struct {
	Job       string           `json:"job"`
	UpdatedAt string           `json:"updated_at"` // RFC3339
	Metrics   []MetricResponse `json:"metrics"`
}

// MetricResponse is one series of a group.
type MetricResponse struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// GroupsResponse is the payload for GET /api/v1/groups and the data of every
// WebSocket broadcast.
type GroupsResponse struct {
	Groups      []GroupResponse `json:"groups"`
	GeneratedAt string          `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
