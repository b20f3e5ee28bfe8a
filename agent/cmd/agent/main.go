package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/didacticeureka/didacticeureka/agent/internal/config"
)

// logLevel is shared by the default handler so a config reload can change it.
var logLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Publish ATM strike and implied volatility from the JPX settlement-price file",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, err := cmd.Flags().GetString("env-file")
		if err != nil {
			return err
		}
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config file (defaults are used when empty)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before the config; missing is fine")

	rootCmd.AddCommand(runCmd, serveCmd, locateCmd)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("agent: exiting", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads the --config file, or returns defaults when it is unset,
// and applies its log level.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", err
	}

	cfg := config.Defaults()
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, "", err
		}
	}
	applyLogLevel(cfg)

	slog.Info("agent: config loaded",
		"config", path,
		"index_url", cfg.Agent.Source.IndexURL,
		"sink", cfg.Agent.Publisher.Sink,
		"namespace", cfg.Agent.Publisher.Namespace,
	)
	return cfg, path, nil
}

func applyLogLevel(cfg *config.Config) {
	// validate has already accepted the level.
	lvl, _ := config.ParseLevel(cfg.Agent.LogLevel)
	logLevel.Set(lvl)
}
