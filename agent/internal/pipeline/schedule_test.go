package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/didacticeureka/didacticeureka/agent/internal/config"
	"github.com/didacticeureka/didacticeureka/pkg/types"
)

func tokyo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestSchedule_Due(t *testing.T) {
	s := Schedule{Interval: 6 * time.Hour, WeekdaysOnly: true, Location: tokyo(t)}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		// 2025-08-22 is a Friday.
		{"friday noon utc", time.Date(2025, 8, 22, 12, 0, 0, 0, time.UTC), true},
		{"friday late utc is saturday in tokyo", time.Date(2025, 8, 22, 18, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2025, 8, 24, 3, 0, 0, 0, time.UTC), false},
		{"sunday late utc is monday in tokyo", time.Date(2025, 8, 24, 16, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		if got := s.Due(tc.at); got != tc.want {
			t.Errorf("%s: Due(%v) = %v, want %v", tc.name, tc.at, got, tc.want)
		}
	}

	s.WeekdaysOnly = false
	if !s.Due(time.Date(2025, 8, 24, 3, 0, 0, 0, time.UTC)) {
		t.Error("Due with WeekdaysOnly=false: got false on sunday")
	}
}

func TestScheduleFromConfig(t *testing.T) {
	s := ScheduleFromConfig(config.Defaults().Agent.Schedule)
	if s.Interval != 6*time.Hour || !s.WeekdaysOnly || s.Location.String() != "Asia/Tokyo" {
		t.Errorf("ScheduleFromConfig: got %+v", s)
	}
}

func TestNewTickEvent(t *testing.T) {
	at := time.Date(2025, 8, 21, 9, 0, 0, 0, tokyo(t))
	var ev TickEvent
	if err := json.Unmarshal(NewTickEvent(at), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Source != EventSourceSchedule {
		t.Errorf("Source: got %q", ev.Source)
	}
	if !ev.Time.Equal(at) {
		t.Errorf("Time: got %v, want %v", ev.Time, at)
	}
}

type countingPublisher struct{ n int }

func (c *countingPublisher) Ship(context.Context, types.Result) error {
	c.n++
	return nil
}

func TestServe_SkipsWeekendsAndStopsOnCancel(t *testing.T) {
	var calls []string
	src := stubSource{calls: &calls, err: types.ErrLinkNotFound}
	p := New(Deps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Source:    src,
		Publisher: &countingPublisher{},
	})
	sched := Schedule{Interval: time.Hour, WeekdaysOnly: true, Location: time.UTC}

	// Friday, Saturday, Monday.
	ticks := []time.Time{
		time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 23, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC),
	}
	i := 0
	now := func() time.Time { return ticks[i] }

	ctx, cancel := context.WithCancel(context.Background())
	after := func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		i++
		if i == len(ticks) {
			cancel()
			return ch
		}
		ch <- ticks[i]
		return ch
	}

	done := make(chan struct{})
	go func() {
		serve(ctx, func() (*Pipeline, Schedule) { return p, sched }, nil, now, after)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	if len(calls) != 2 {
		t.Errorf("runs: got %d (%v), want 2 (friday and monday)", len(calls), calls)
	}
}
