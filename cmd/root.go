package cmd

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/halyard-dev/vessel/internal/app"
	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/logger"
)

// Build information, set from main via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Run parses CLI flags, sets up logging and config, and starts the app.
func Run() error {
	configPath := flag.String("config-path", config.DefaultPath(), "path to config file")
	logPath := flag.String("log-path", logger.DefaultPath(), "path to log file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	server := flag.String("server", "", "Mattermost server URL (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vessel %s (%s, %s)\n", Version, Commit, Date)
		return nil
	}

	level := parseLevel(*logLevel)
	if err := logger.Setup(*logPath, level); err != nil {
		return err
	}

	slog.Info("starting vessel", "version", Version, "config", *configPath, "log", *logPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *server != "" {
		cfg.Server = *server
	}

	return app.New(cfg).Run()
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
