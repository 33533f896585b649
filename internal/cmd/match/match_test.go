package match

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.GRPCPort != 8093 {
		t.Fatalf("expected default grpc port, got %d", cfg.GRPCPort)
	}
	if cfg.HTTPAddr != ":8094" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "data/match.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.SyncInterval != 2*time.Second {
		t.Fatalf("expected default sync interval, got %s", cfg.SyncInterval)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("SINKLINE_MATCH_DB_PATH", "/tmp/env.db")
	t.Setenv("SINKLINE_MATCH_LOCALE", "pt-BR")

	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/flag.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("expected flag db path, got %q", cfg.DBPath)
	}
	if cfg.Locale != "pt-BR" {
		t.Fatalf("expected env locale, got %q", cfg.Locale)
	}
}
