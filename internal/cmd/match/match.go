// Package match parses match command flags and launches the match runtime.
package match

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/sinkline/internal/platform/cmd"
	"github.com/louisbranch/sinkline/internal/services/match/app"
)

// Config holds match command configuration.
type Config struct {
	GRPCPort     int           `env:"SINKLINE_MATCH_GRPC_PORT"     envDefault:"8093"`
	HTTPAddr     string        `env:"SINKLINE_MATCH_HTTP_ADDR"     envDefault:":8094"`
	DBPath       string        `env:"SINKLINE_MATCH_DB_PATH"       envDefault:"data/match.db"`
	Locale       string        `env:"SINKLINE_MATCH_LOCALE"        envDefault:"en-US"`
	SyncInterval time.Duration `env:"SINKLINE_MATCH_SYNC_INTERVAL" envDefault:"2s"`
	SyncBatch    int           `env:"SINKLINE_MATCH_SYNC_BATCH"    envDefault:"32"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "The match health gRPC server port")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The match HTTP server address (feed and health)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The match SQLite database path")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Announcement locale")
	fs.DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "Sync outbox poll interval")
	fs.IntVar(&cfg.SyncBatch, "sync-batch", cfg.SyncBatch, "Sync outbox claim batch size")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the match runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMatch, func(ctx context.Context) error {
		runtime, err := app.NewRuntime(ctx, app.RuntimeConfig{
			GRPCPort:     cfg.GRPCPort,
			HTTPAddr:     cfg.HTTPAddr,
			DBPath:       cfg.DBPath,
			Locale:       cfg.Locale,
			SyncInterval: cfg.SyncInterval,
			SyncBatch:    cfg.SyncBatch,
		})
		if err != nil {
			return err
		}
		return runtime.Run(ctx)
	})
}
