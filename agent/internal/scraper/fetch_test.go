package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/didacticeureka/didacticeureka/agent/internal/config"
	"github.com/didacticeureka/didacticeureka/pkg/types"
)

func TestFetch_ReturnsBody(t *testing.T) {
	body := []byte{0x82, 0xa0, 0x2c, 0x31, 0x0a} // raw Shift-JIS bytes pass through untouched
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	d, err := testClient(srv, srv.URL).Fetch(context.Background(), srv.URL+"/att/rb20250821.csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !bytes.Equal(d.Body, body) {
		t.Errorf("Body = %x, want %x", d.Body, body)
	}
	if d.Name != "rb20250821.csv" {
		t.Errorf("Name = %q, want rb20250821.csv", d.Name)
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	_, err := testClient(srv, srv.URL).Fetch(context.Background(), srv.URL+"/missing.csv")
	if !errors.Is(err, types.ErrFetchFailed) {
		t.Fatalf("Fetch() error = %v, want ErrFetchFailed", err)
	}
}

func TestFetch_ConnectFailure(t *testing.T) {
	c := New(config.SourceConfig{UserAgent: "x", Timeout: time.Second}, nil)
	_, err := c.Fetch(context.Background(), "http://127.0.0.1:1/rb.csv")
	if !errors.Is(err, types.ErrFetchFailed) {
		t.Fatalf("Fetch() error = %v, want ErrFetchFailed", err)
	}
}

func TestFetch_SingleAttempt(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _ = testClient(srv, srv.URL).Fetch(context.Background(), srv.URL)
	if calls != 1 {
		t.Errorf("server saw %d requests, want exactly 1", calls)
	}
}
