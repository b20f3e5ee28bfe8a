package receiver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/didacticeureka/didacticeureka/server/internal/store"
)

// maxBodyBytes bounds a single push.
const maxBodyBytes = 4 << 20

// JobLabel is the grouping label of every pushed group.
const JobLabel = "job"

// Receiver accepts Pushgateway-style pushes and writes them to the store.
//
//	PUT    /metrics/job/{job}  replace the whole group
//	POST   /metrics/job/{job}  replace only the pushed families
//	DELETE /metrics/job/{job}  drop the group
type Receiver struct {
	store *store.Store
	mux   *http.ServeMux
}

// New creates a Receiver that writes accepted pushes to st.
func New(st *store.Store) *Receiver {
	r := &Receiver{store: st, mux: http.NewServeMux()}
	r.mux.HandleFunc("PUT /metrics/job/{job}", r.push)
	r.mux.HandleFunc("POST /metrics/job/{job}", r.push)
	r.mux.HandleFunc("DELETE /metrics/job/{job}", r.delete)
	return r
}

func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Receiver) push(w http.ResponseWriter, req *http.Request) {
	job := req.PathValue("job")
	if job == "" {
		jsonErr(w, http.StatusBadRequest, "job is required")
		return
	}

	families, err := decode(w, req, job)
	if err != nil {
		slog.Warn("receiver: push rejected", "job", job, "err", err)
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Method == http.MethodPut {
		r.store.Replace(job, families)
	} else {
		r.store.Merge(job, families)
	}

	slog.Debug("receiver: group stored",
		"job", job,
		"method", req.Method,
		"families", len(families),
	)
	w.WriteHeader(http.StatusOK)
}

func (r *Receiver) delete(w http.ResponseWriter, req *http.Request) {
	job := req.PathValue("job")
	existed := r.store.Delete(job)
	slog.Debug("receiver: group deleted", "job", job, "existed", existed)
	w.WriteHeader(http.StatusAccepted)
}

// decode reads every metric family from the request body. The body may be in
// the text format or length-delimited protobuf, selected by Content-Type.
// Metrics must not carry a job label that contradicts the URL.
func decode(w http.ResponseWriter, req *http.Request, job string) (map[string]*dto.MetricFamily, error) {
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)
	dec := expfmt.NewDecoder(body, expfmt.ResponseFormat(req.Header))

	out := make(map[string]*dto.MetricFamily)
	for {
		mf := &dto.MetricFamily{}
		err := dec.Decode(mf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == JobLabel && l.GetValue() != job {
					return nil, fmt.Errorf("metric %s has job label %q, pushed to job %q",
						mf.GetName(), l.GetValue(), job)
				}
			}
		}
		out[mf.GetName()] = mf
	}
	return out, nil
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
