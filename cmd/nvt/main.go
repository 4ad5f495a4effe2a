package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"nvt.dev/transit"
	"nvt.dev/transit/config"
	"nvt.dev/transit/downloader"
)

var rootCmd = &cobra.Command{
	Use:          "nvt",
	Short:        "Multi-operator transit network tool",
	Long:         "Ingests, fuses and serves transit data from the urban, regional and national rail operators",
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (optional)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopsCmd)
	rootCmd.AddCommand(linesCmd)
	rootCmd.AddCommand(arrivalsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
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

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Dir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving cache directory: %w", err)
		}
		cfg.Cache.Dir = dir
	}
	return cfg, nil
}

// buildEngine wires a store and refresh engine and blocks on the
// initial cache build.
func buildEngine(ctx context.Context) (*transit.Store, *transit.Engine, *config.Config, error) {
	setupLogging()

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, err
	}

	store := transit.NewStore(loc)
	engine := transit.NewEngine(cfg, store, downloader.NewMemoryDownloader(), slog.Default())

	if err := engine.Initialize(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("initializing network cache: %w", err)
	}

	return store, engine, cfg, nil
}
