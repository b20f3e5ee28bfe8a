package main

import (
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/didacticeureka/didacticeureka/agent/internal/config"
	"github.com/didacticeureka/didacticeureka/agent/internal/pipeline"
	"github.com/didacticeureka/didacticeureka/agent/internal/security"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on the configured schedule until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		st, err := newServeState(cfg)
		if err != nil {
			return err
		}
		var current atomic.Pointer[serveState]
		current.Store(st)

		if cs := security.Check(ctx, cfg.Agent.Source); cs != nil {
			slog.Info("agent: source certificate", cs.LogAttrs()...)
		}

		if path != "" {
			go func() {
				if err := config.Watch(ctx, path, func(updated *config.Config) {
					next, err := newServeState(updated)
					if err != nil {
						slog.Error("agent: reload rejected", "err", err)
						return
					}
					applyLogLevel(updated)
					current.Store(next)
					slog.Info("agent: config hot-reloaded",
						"sink", updated.Agent.Publisher.Sink,
						"interval", updated.Agent.Schedule.Interval,
					)
				}); err != nil {
					slog.Error("agent: config watcher stopped", "err", err)
				}
			}()
		}

		slog.Info("agent: serving",
			"interval", cfg.Agent.Schedule.Interval,
			"weekdays_only", cfg.Agent.Schedule.WeekdaysOnly,
			"timezone", cfg.Agent.Schedule.Timezone,
		)
		pipeline.Serve(ctx, func() (*pipeline.Pipeline, pipeline.Schedule) {
			s := current.Load()
			return s.pipeline, s.schedule
		}, slog.Default())

		slog.Info("agent: shutting down")
		return nil
	},
}

type serveState struct {
	pipeline *pipeline.Pipeline
	schedule pipeline.Schedule
}

func newServeState(cfg *config.Config) (*serveState, error) {
	p, err := pipeline.FromConfig(cfg.Agent, slog.Default())
	if err != nil {
		return nil, err
	}
	return &serveState{pipeline: p, schedule: pipeline.ScheduleFromConfig(cfg.Agent.Schedule)}, nil
}
