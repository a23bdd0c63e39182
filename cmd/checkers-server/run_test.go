package main

import (
	"errors"
	"testing"

	"github.com/park285/checkers-server/internal/config"
)

func TestApplyFlagsOverridesConfig(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.Flags().Parse([]string{"--listen", ":9000", "--max-games", "2", "--requeue"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg := config.Defaults()
	cfg.RedisURL = "redis://keep:6379/0"
	if err := applyFlags(cmd, cfg); err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if cfg.ListenAddr != ":9000" || cfg.MaxGames != 2 || !cfg.RequeueOnOpponentLeft {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.MaxPlayers != 16 || cfg.RedisURL != "redis://keep:6379/0" {
		t.Fatalf("unset flags changed cfg: %+v", cfg)
	}
}

func TestApplyFlagsValidates(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.Flags().Parse([]string{"--max-players", "1"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := applyFlags(cmd, config.Defaults()); !errors.Is(err, config.ErrTooFewPlayers) {
		t.Fatalf("expected ErrTooFewPlayers, got %v", err)
	}
}
