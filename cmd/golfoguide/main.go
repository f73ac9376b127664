package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/golfoguide/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "golfoguide",
	Short: "AI tourism concierge for the town",
	Long:  "Golfoguide answers visitors' questions about events, places, venues and offers by combining a language model with the town's content database.",
}

func init() {
	defaultPath := filepath.Join(os.Getenv("HOME"), ".golfoguide", "config.json")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "config file path")
}

// loadConfig loads the config file, exiting on failure. Commands that
// can run with an incomplete config (config get/set) use this too;
// Validate is called only where credentials are actually needed.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
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

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
