// Package mcp parses MCP command flags and serves the match tools on stdio.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	entrypoint "github.com/louisbranch/sinkline/internal/platform/cmd"
	mcpapi "github.com/louisbranch/sinkline/internal/services/match/api/mcp"
	"github.com/louisbranch/sinkline/internal/services/match/app"
	"github.com/louisbranch/sinkline/internal/services/match/storage/sqlite"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath string `env:"SINKLINE_MCP_DB_PATH" envDefault:"data/match.db"`
	Locale string `env:"SINKLINE_MCP_LOCALE"  envDefault:"en-US"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The match SQLite database path")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Announcement locale")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP stdio server over an in-process match service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open match store: %w", err)
		}
		defer store.Close()

		service := app.NewService(store, app.WithLocale(cfg.Locale))
		return mcpapi.NewServer(service).Serve(ctx)
	})
}
