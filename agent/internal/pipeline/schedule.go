package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/didacticeureka/didacticeureka/agent/internal/config"
)

// EventSourceSchedule is the source field of events emitted by Serve.
const EventSourceSchedule = "agent.schedule"

// Schedule gates ticks of the serve loop.
type Schedule struct {
	Interval     time.Duration
	WeekdaysOnly bool
	Location     *time.Location
}

// ScheduleFromConfig resolves the schedule config section.
func ScheduleFromConfig(c config.ScheduleConfig) Schedule {
	return Schedule{
		Interval:     c.Interval,
		WeekdaysOnly: c.WeekdaysOnly,
		Location:     c.Location(),
	}
}

// Due reports whether a tick at t should run the pipeline. With WeekdaysOnly
// set, Saturday and Sunday in Location are skipped.
func (s Schedule) Due(t time.Time) bool {
	if !s.WeekdaysOnly {
		return true
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	switch t.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// TickEvent is the event payload of a scheduled run.
type TickEvent struct {
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
}

// NewTickEvent encodes the payload for a tick at t.
func NewTickEvent(t time.Time) json.RawMessage {
	b, _ := json.Marshal(TickEvent{Source: EventSourceSchedule, Time: t.UTC()})
	return b
}

// Current returns the pipeline and schedule to use for the next tick.
// Serve calls it on every tick so config reloads take effect.
type Current func() (*Pipeline, Schedule)

// Serve runs the pipeline immediately and then every Interval until ctx is
// cancelled. Ticks that are not Due are skipped. A failed run is logged and
// the loop waits for the next tick; runs are never retried.
func Serve(ctx context.Context, current Current, logger *slog.Logger) {
	serve(ctx, current, logger, time.Now, time.After)
}

func serve(ctx context.Context, current Current, logger *slog.Logger,
	now func() time.Time, after func(time.Duration) <-chan time.Time) {
	if logger == nil {
		logger = slog.Default()
	}

	for {
		p, sched := current()
		t := now()
		if sched.Due(t) {
			// Run logs its own failures.
			_, _ = p.Run(ctx, NewTickEvent(t))
		} else {
			logger.InfoContext(ctx, "pipeline: tick skipped", "time", t, "reason", "weekend")
		}

		select {
		case <-ctx.Done():
			return
		case <-after(sched.Interval):
		}
	}
}
