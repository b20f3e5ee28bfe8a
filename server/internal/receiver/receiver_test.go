package receiver_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/didacticeureka/didacticeureka/server/internal/auth"
	"github.com/didacticeureka/didacticeureka/server/internal/receiver"
	"github.com/didacticeureka/didacticeureka/server/internal/store"
)

const pushBody = `# TYPE atm gauge
atm{month="1"} 28000
atm{month="2"} 28250
# TYPE iv gauge
iv{month="1",put_call="put"} 0.18
iv{month="1",put_call="call"} 0.2
iv{month="2",put_call="put"} 0.17
iv{month="2",put_call="call"} 0.19
`

func send(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPut_StoresGroup(t *testing.T) {
	st := store.New(time.Hour)
	rr := send(t, receiver.New(st), http.MethodPut, "/metrics/job/didactic-eureka", pushBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rr.Code, rr.Body)
	}

	g, ok := st.Get("didactic-eureka")
	if !ok {
		t.Fatal("group not stored")
	}
	if n := len(g.Families["atm"].GetMetric()); n != 2 {
		t.Errorf("atm series: got %d, want 2", n)
	}
	if n := len(g.Families["iv"].GetMetric()); n != 4 {
		t.Errorf("iv series: got %d, want 4", n)
	}
}

func TestPut_ReplacesAndPostMerges(t *testing.T) {
	st := store.New(time.Hour)
	rec := receiver.New(st)

	send(t, rec, http.MethodPut, "/metrics/job/j", pushBody)
	send(t, rec, http.MethodPost, "/metrics/job/j", "# TYPE extra gauge\nextra 1\n")

	g, _ := st.Get("j")
	if len(g.Families) != 3 {
		t.Errorf("after POST: got %d families, want 3", len(g.Families))
	}

	send(t, rec, http.MethodPut, "/metrics/job/j", "# TYPE extra gauge\nextra 2\n")
	g, _ = st.Get("j")
	if len(g.Families) != 1 {
		t.Errorf("after PUT: got %d families, want 1", len(g.Families))
	}
}

func TestPut_Protobuf(t *testing.T) {
	st := store.New(time.Hour)

	mf := &dto.MetricFamily{
		Name:   proto.String("atm"),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(28000)}}},
	}
	format := expfmt.NewFormat(expfmt.TypeProtoDelim)
	var buf bytes.Buffer
	if err := expfmt.NewEncoder(&buf, format).Encode(mf); err != nil {
		t.Fatalf("encode: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/metrics/job/pb", &buf)
	req.Header.Set("Content-Type", string(format))
	rr := httptest.NewRecorder()
	receiver.New(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rr.Code, rr.Body)
	}
	g, ok := st.Get("pb")
	if !ok || g.Families["atm"].GetMetric()[0].GetGauge().GetValue() != 28000 {
		t.Errorf("protobuf push not stored: %+v", g)
	}
}

func TestPut_RejectsMalformed(t *testing.T) {
	st := store.New(time.Hour)
	rr := send(t, receiver.New(st), http.MethodPut, "/metrics/job/j", "atm{month=1 28000\n")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	if st.Count() != 0 {
		t.Error("malformed push stored")
	}
}

func TestPut_RejectsConflictingJobLabel(t *testing.T) {
	st := store.New(time.Hour)
	rr := send(t, receiver.New(st), http.MethodPut, "/metrics/job/j", "atm{job=\"other\"} 1\n")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestDelete(t *testing.T) {
	st := store.New(time.Hour)
	rec := receiver.New(st)
	send(t, rec, http.MethodPut, "/metrics/job/j", pushBody)

	rr := send(t, rec, http.MethodDelete, "/metrics/job/j", "")
	if rr.Code != http.StatusAccepted {
		t.Errorf("status: got %d, want 202", rr.Code)
	}
	if _, ok := st.Get("j"); ok {
		t.Error("group still present after DELETE")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := send(t, receiver.New(store.New(time.Hour)), http.MethodGet, "/metrics/job/j", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

func TestAuth_GuardsPush(t *testing.T) {
	st := store.New(time.Hour)
	h := auth.APIKey("apikey", "x-api-key", "secret", receiver.New(st))

	rr := send(t, h, http.MethodPut, "/metrics/job/j", pushBody)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("without key: got %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/metrics/job/j", strings.NewReader(pushBody))
	req.Header.Set("x-api-key", "secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("with key: got %d, want 200", rr.Code)
	}
	if st.Count() != 1 {
		t.Errorf("Count: got %d, want 1", st.Count())
	}
}
