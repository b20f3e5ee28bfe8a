package api

import (
	"log/slog"
	"net/http"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/didacticeureka/didacticeureka/server/internal/store"
)

// pushTimeMetric carries the time of the last push per job.
const pushTimeMetric = "push_time_seconds"

// metrics returns GET /metrics: every live group merged into one exposition,
// each series labelled with its job. The format is negotiated from Accept.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	families := Gather(h.store.List())

	format := expfmt.Negotiate(r.Header)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			slog.Warn("api: encode exposition", "family", mf.GetName(), "err", err)
			return
		}
	}
	if c, ok := enc.(expfmt.Closer); ok {
		c.Close() //nolint:errcheck
	}
}

// Gather merges groups into metric families sorted by name. Every series gets
// a job label, and a push_time_seconds gauge is added per group. A family
// whose type differs from the same name in an earlier group is skipped.
func Gather(groups []*store.Group) []*dto.MetricFamily {
	merged := make(map[string]*dto.MetricFamily)

	pushTime := &dto.MetricFamily{
		Name: proto.String(pushTimeMetric),
		Help: proto.String("Last Unix time when this group was changed in the server."),
		Type: dto.MetricType_GAUGE.Enum(),
	}

	for _, g := range groups {
		for _, name := range g.Names() {
			src := g.Families[name]
			dst, ok := merged[name]
			if !ok {
				dst = &dto.MetricFamily{Name: src.Name, Help: src.Help, Type: src.Type}
				merged[name] = dst
			} else if dst.GetType() != src.GetType() {
				slog.Warn("api: inconsistent metric type across groups",
					"family", name, "job", g.Job,
					"want", dst.GetType().String(), "got", src.GetType().String())
				continue
			}
			for _, m := range src.GetMetric() {
				dst.Metric = append(dst.Metric, withJob(m, g.Job))
			}
		}

		pushTime.Metric = append(pushTime.Metric, &dto.Metric{
			Label: []*dto.LabelPair{jobLabel(g.Job)},
			Gauge: &dto.Gauge{Value: proto.Float64(float64(g.UpdatedAt.UnixNano()) / 1e9)},
		})
	}
	if len(pushTime.Metric) > 0 {
		if _, taken := merged[pushTimeMetric]; !taken {
			merged[pushTimeMetric] = pushTime
		}
	}

	out := make([]*dto.MetricFamily, 0, len(merged))
	for _, mf := range merged {
		out = append(out, mf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// withJob returns a copy of m with the job label added and labels sorted.
// Stored metrics are never modified.
func withJob(m *dto.Metric, job string) *dto.Metric {
	c := proto.Clone(m).(*dto.Metric)
	labels := make([]*dto.LabelPair, 0, len(c.Label)+1)
	labels = append(labels, jobLabel(job))
	for _, l := range c.Label {
		if l.GetName() != "job" {
			labels = append(labels, l)
		}
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].GetName() < labels[j].GetName() })
	c.Label = labels
	return c
}

func jobLabel(job string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String("job"), Value: proto.String(job)}
}
