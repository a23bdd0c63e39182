package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHECKERS_CONFIG", "LISTEN_ADDR", "WS_LISTEN_ADDR", "ADMIN_ADDR", "REDIS_URL",
		"MAX_PLAYERS", "MAX_GAMES", "MAX_LINE_LENGTH", "OUTBOX_LIMIT", "TABLE_TTL_SEC", "REQUEUE_ON_OPPONENT_LEFT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":1100" || cfg.MaxPlayers != 16 || cfg.MaxGames != 8 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.RequeueOnOpponentLeft || cfg.WSListenAddr != "" || cfg.AdminAddr != "" {
		t.Fatalf("optional features enabled by default: %+v", cfg)
	}
	if cfg.TableTTL() != 24*time.Hour {
		t.Fatalf("ttl = %v", cfg.TableTTL())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "checkers.yaml")
	body := "listen_addr: \":2200\"\nmax_players: 4\nmax_games: 2\nrequeue_on_opponent_left: true\nredis_url: redis://file:6379/0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHECKERS_CONFIG", path)
	t.Setenv("MAX_GAMES", "3")
	t.Setenv("REDIS_URL", "redis://env:6379/1")
	t.Setenv("OUTBOX_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":2200" || cfg.MaxPlayers != 4 || !cfg.RequeueOnOpponentLeft {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.MaxGames != 3 || cfg.RedisURL != "redis://env:6379/1" {
		t.Fatalf("env did not override: %+v", cfg)
	}
	if cfg.OutboxLimit != 256 {
		t.Fatalf("bad env value applied: %d", cfg.OutboxLimit)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHECKERS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing file error")
	}

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_players: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHECKERS_CONFIG", path)
	if _, err := Load(); !errors.Is(err, ErrTooFewPlayers) {
		t.Fatalf("expected ErrTooFewPlayers, got %v", err)
	}

	cfg := Defaults()
	cfg.MaxGames = 0
	if err := cfg.Validate(); !errors.Is(err, ErrNoGames) {
		t.Fatalf("expected ErrNoGames, got %v", err)
	}
	cfg = Defaults()
	cfg.ListenAddr = ""
	if err := cfg.Validate(); !errors.Is(err, ErrNoListener) {
		t.Fatalf("expected ErrNoListener, got %v", err)
	}
}
