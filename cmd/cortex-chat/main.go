package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sfc-gh-cserrano/cortex-threads/internal/config"
	"github.com/sfc-gh-cserrano/cortex-threads/pkg/cortex"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "cortex-chat",
	Short:        "Chat with a Cortex agent over threaded conversations",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")
}

// loadConfig loads and validates configuration, then wires logging from it.
// Config errors abort before any network activity.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func newClient(cfg *config.Config) *cortex.Client {
	return cortex.New(cortex.Config{
		AccountURL:  cfg.AccountURL,
		PAT:         cfg.PAT,
		Database:    cfg.Database,
		Schema:      cfg.Schema,
		Agent:       cfg.Agent,
		Application: cfg.Application,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
