package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/didacticeureka/didacticeureka/server/internal/store"
)

// Handler serves the read side of the server: the Prometheus exposition at
// /metrics and the JSON API under /api/v1/.
type Handler struct {
	store *store.Store
	mux   *http.ServeMux
	now   func() time.Time
}

// New creates a Handler wired to the given group store and registers all routes.
func New(st *store.Store) *Handler {
	h := &Handler{store: st, mux: http.NewServeMux(), now: time.Now}

	h.mux.HandleFunc("GET /metrics", h.metrics)
	h.mux.HandleFunc("GET /api/v1/health", h.health)
	h.mux.HandleFunc("GET /api/v1/groups", h.listGroups)
	h.mux.HandleFunc("GET /api/v1/groups/{job}", h.getGroup)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: live group count and the latest push time.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	groups := h.store.List()
	resp := HealthResponse{Status: "ok", GroupCount: len(groups)}

	var last time.Time
	for _, g := range groups {
		if g.UpdatedAt.After(last) {
			last = g.UpdatedAt
		}
	}
	if !last.IsZero() {
		resp.LastPush = last.UTC().Format(time.RFC3339)
	}
	jsonResp(w, http.StatusOK, resp)
}

// listGroups returns GET /api/v1/groups: every live group.
func (h *Handler) listGroups(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.buildGroups())
}

// getGroup returns GET /api/v1/groups/{job}: a single live group.
func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	g, ok := h.store.Get(r.PathValue("job"))
	if !ok {
		jsonErr(w, http.StatusNotFound, "group not found")
		return
	}
	jsonResp(w, http.StatusOK, toGroupResponse(g))
}

// --- helpers ----------------------------------------------------------------

// BuildGroups returns the live groups of st in their JSON representation.
func BuildGroups(st *store.Store) GroupsResponse {
	return New(st).buildGroups()
}

func (h *Handler) buildGroups() GroupsResponse {
	groups := h.store.List()
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	return GroupsResponse{
		Groups:      out,
		GeneratedAt: h.now().UTC().Format(time.RFC3339),
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toGroupResponse maps a store.Group to its JSON representation. Families are
// listed by name; series keep their pushed order.
func toGroupResponse(g *store.Group) GroupResponse {
	metrics := make([]MetricResponse, 0)
	for _, name := range g.Names() {
		mf := g.Families[name]
		for _, m := range mf.GetMetric() {
			mr := MetricResponse{
				Name:  name,
				Type:  strings.ToLower(mf.GetType().String()),
				Value: sampleValue(mf.GetType(), m),
			}
			if len(m.GetLabel()) > 0 {
				mr.Labels = make(map[string]string, len(m.GetLabel()))
				for _, l := range m.GetLabel() {
					mr.Labels[l.GetName()] = l.GetValue()
				}
			}
			metrics = append(metrics, mr)
		}
	}
	return GroupResponse{
		Job:       g.Job,
		UpdatedAt: g.UpdatedAt.UTC().Format(time.RFC3339),
		Metrics:   metrics,
	}
}

// sampleValue returns the single value shown for a series. Summaries and
// histograms report their sample sum.
func sampleValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_SUMMARY:
		return m.GetSummary().GetSampleSum()
	case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
		return m.GetHistogram().GetSampleSum()
	default:
		return m.GetUntyped().GetValue()
	}
}
