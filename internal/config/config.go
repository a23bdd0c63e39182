package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// AppConfig is the server configuration.
type AppConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	WSListenAddr string `yaml:"ws_listen_addr"`
	AdminAddr    string `yaml:"admin_addr"`

	MaxPlayers    int `yaml:"max_players"`
	MaxGames      int `yaml:"max_games"`
	MaxLineLength int `yaml:"max_line_length"`
	OutboxLimit   int `yaml:"outbox_limit"`

	RequeueOnOpponentLeft bool `yaml:"requeue_on_opponent_left"`

	RedisURL    string `yaml:"redis_url"`
	TableTTLSec int    `yaml:"table_ttl_sec"`
}

// Validation errors.
var (
	ErrNoListener    = errors.New("LISTEN_ADDR or WS_LISTEN_ADDR is required")
	ErrTooFewPlayers = errors.New("MAX_PLAYERS must be at least 2")
	ErrNoGames       = errors.New("MAX_GAMES must be at least 1")
)

// Defaults returns the built-in configuration.
func Defaults() *AppConfig {
	return &AppConfig{
		ListenAddr:    ":1100",
		MaxPlayers:    16,
		MaxGames:      8,
		MaxLineLength: 256,
		OutboxLimit:   256,
		TableTTLSec:   86400,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CHECKERS_CONFIG (if set), and environment variables, in that order.
func Load() (*AppConfig, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CHECKERS_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	if v, ok := lookup("LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v, ok := lookup("WS_LISTEN_ADDR"); ok {
		c.WSListenAddr = v
	}
	if v, ok := lookup("ADMIN_ADDR"); ok {
		c.AdminAddr = v
	}
	if v, ok := lookup("REDIS_URL"); ok {
		c.RedisURL = v
	}

	envInt("MAX_PLAYERS", &c.MaxPlayers)
	envInt("MAX_GAMES", &c.MaxGames)
	envInt("MAX_LINE_LENGTH", &c.MaxLineLength)
	envInt("OUTBOX_LIMIT", &c.OutboxLimit)
	envInt("TABLE_TTL_SEC", &c.TableTTLSec)

	if v, ok := lookup("REQUEUE_ON_OPPONENT_LEFT"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.RequeueOnOpponentLeft = b
		}
	}
}

// Validate checks the values the server cannot run without.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" && strings.TrimSpace(c.WSListenAddr) == "" {
		return ErrNoListener
	}
	if c.MaxPlayers < 2 {
		return ErrTooFewPlayers
	}
	if c.MaxGames < 1 {
		return ErrNoGames
	}
	if c.MaxLineLength <= 0 {
		c.MaxLineLength = 256
	}
	if c.OutboxLimit <= 0 {
		c.OutboxLimit = 256
	}
	if c.TableTTLSec <= 0 {
		c.TableTTLSec = 86400
	}
	return nil
}

// TableTTL is the Redis retention of a mirrored table.
func (c *AppConfig) TableTTL() time.Duration {
	return time.Duration(c.TableTTLSec) * time.Second
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// envInt overwrites dst with a positive integer from key; other values are ignored.
func envInt(key string, dst *int) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
