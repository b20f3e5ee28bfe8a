package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/didacticeureka/didacticeureka/server/internal/api"
	"github.com/didacticeureka/didacticeureka/server/internal/auth"
	"github.com/didacticeureka/didacticeureka/server/internal/config"
	"github.com/didacticeureka/didacticeureka/server/internal/receiver"
	"github.com/didacticeureka/didacticeureka/server/internal/store"
	"github.com/didacticeureka/didacticeureka/server/internal/ws"
)

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Accept metric pushes and serve them to Prometheus, the REST API and WebSocket clients",
	RunE:         serve,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().String("config", "", "path to config file (defaults are used when empty)")
	rootCmd.Flags().String("env-file", ".env", "dotenv file loaded before the config; missing is fine")
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("server: exiting", "err", err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := config.Defaults()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}

	slog.Info("server: config loaded",
		"config", configPath,
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"group_ttl", cfg.Server.GroupTTL,
		"stream_interval", cfg.Server.StreamInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Pushed groups with background TTL eviction.
	st := store.New(cfg.Server.GroupTTL)
	go st.Run(ctx)

	hub := ws.New(st, cfg.Server.StreamInterval)
	go hub.Run(ctx)

	// Pushes are authenticated; reads are not.
	push := auth.APIKey(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
		receiver.New(st),
	)
	apiH := api.New(st)

	mux := http.NewServeMux()
	mux.Handle("/metrics/job/", push)
	mux.Handle("/metrics", apiH)
	mux.Handle("/api/", apiH)
	mux.Handle("/ws/stream", hub)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("server: listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("server: listen: %w", err)
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	slog.Info("server: shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
