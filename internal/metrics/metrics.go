// Package metrics exposes Prometheus instruments for the checkers server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/park285/checkers-server/internal/lobby"
)

// Config configures the metric set.
type Config struct {
	// Namespace prefixes every metric name (default: "checkers").
	Namespace string

	// Registry receives the collectors. Default: a fresh registry.
	Registry *prometheus.Registry
}

// Option configures the metric set.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(ns string) Option { return func(c *Config) { c.Namespace = ns } }

// WithRegistry sets the Prometheus registry.
func WithRegistry(r *prometheus.Registry) Option { return func(c *Config) { c.Registry = r } }

// Metrics holds the server's collectors. It also observes table lifecycle
// events from the lobby.
type Metrics struct {
	registry *prometheus.Registry

	connections    *prometheus.CounterVec
	activeSessions prometheus.Gauge
	activeGames    prometheus.Gauge
	gamesStarted   prometheus.Counter
	gamesFinished  *prometheus.CounterVec
	moves          *prometheus.CounterVec
	outboxStalls   prometheus.Counter
}

var _ lobby.Observer = (*Metrics)(nil)

// New registers the collectors.
func New(opts ...Option) *Metrics {
	cfg := Config{Namespace: "checkers"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		registry: cfg.Registry,

		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "connections_total",
			Help:      "Connections by transport and admission outcome",
		}, []string{"transport", "outcome"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "active_sessions",
			Help:      "Currently registered player sessions",
		}),

		activeGames: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "active_games",
			Help:      "Currently occupied game slots",
		}),

		gamesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "games_started_total",
			Help:      "Games started",
		}),

		gamesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "games_finished_total",
			Help:      "Games ended by result and reason",
		}, []string{"result", "reason"}),

		moves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "moves_total",
			Help:      "MOVE commands by outcome",
		}, []string{"outcome"}),

		outboxStalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "outbox_stalls_total",
			Help:      "Connections closed because their outbox overflowed",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Connection counts an accepted connection by admission outcome
// ("admitted", "server_full", "no_more_games").
func (m *Metrics) Connection(transport, outcome string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(transport, outcome).Inc()
}

// SessionOpened and SessionClosed track the live session gauge.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// Move counts one handled MOVE.
func (m *Metrics) Move(outcome lobby.MoveOutcome) {
	if m != nil {
		m.moves.WithLabelValues(string(outcome)).Inc()
	}
}

// OutboxStalled counts an overflowed connection.
func (m *Metrics) OutboxStalled() {
	if m != nil {
		m.outboxStalls.Inc()
	}
}

func (m *Metrics) TableStarted(lobby.TableSnapshot) {
	if m == nil {
		return
	}
	m.gamesStarted.Inc()
	m.activeGames.Inc()
}

func (m *Metrics) TableChanged(lobby.TableSnapshot) {}

func (m *Metrics) TableClosed(snap lobby.TableSnapshot, reason lobby.CloseReason) {
	if m == nil {
		return
	}
	m.activeGames.Dec()
	m.gamesFinished.WithLabelValues(snap.Result, string(reason)).Inc()
}
