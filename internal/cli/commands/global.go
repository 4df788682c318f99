package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/windops/turbinelog/pkg/config"
)

// GlobalOptions holds the persistent flags shared by every subcommand.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

// LoadConfig loads the configuration named by --config, or the built-in
// families when no file was given.
func (g *GlobalOptions) LoadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// Logger returns a text logger on w at the level named by --log-level.
func (g *GlobalOptions) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(g.LogLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (use debug, info, warn, or error)", s)
	}
}
