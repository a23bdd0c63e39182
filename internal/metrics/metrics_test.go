package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/park285/checkers-server/internal/lobby"
)

func TestTableLifecycle(t *testing.T) {
	m := New()
	snap := lobby.TableSnapshot{ID: "t1", Result: "running"}
	m.TableStarted(snap)
	m.TableStarted(snap)
	m.TableChanged(snap)
	snap.Result = "white"
	m.TableClosed(snap, lobby.ReasonFinished)

	if got := testutil.ToFloat64(m.gamesStarted); got != 2 {
		t.Fatalf("games started = %v", got)
	}
	if got := testutil.ToFloat64(m.activeGames); got != 1 {
		t.Fatalf("active games = %v", got)
	}
	if got := testutil.ToFloat64(m.gamesFinished.WithLabelValues("white", "finished")); got != 1 {
		t.Fatalf("finished = %v", got)
	}
}

func TestConnectionAndMoves(t *testing.T) {
	m := New(WithNamespace("test"))
	m.Connection("tcp", "admitted")
	m.Connection("tcp", "server_full")
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.Move(lobby.MoveAccepted)
	m.Move(lobby.MoveInvalid)
	m.Move(lobby.MoveInvalid)
	m.OutboxStalled()

	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Fatalf("sessions = %v", got)
	}
	if got := testutil.ToFloat64(m.moves.WithLabelValues("invalid")); got != 2 {
		t.Fatalf("invalid moves = %v", got)
	}

	expected := `
# HELP test_connections_total Connections by transport and admission outcome
# TYPE test_connections_total counter
test_connections_total{outcome="admitted",transport="tcp"} 1
test_connections_total{outcome="server_full",transport="tcp"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "test_connections_total"); err != nil {
		t.Fatalf("gather: %v", err)
	}
}

func TestCallerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))
	if m.Registry() != reg {
		t.Fatalf("registry not used")
	}
	m.OutboxStalled()

	expected := `
# HELP checkers_outbox_stalls_total Connections closed because their outbox overflowed
# TYPE checkers_outbox_stalls_total counter
checkers_outbox_stalls_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "checkers_outbox_stalls_total"); err != nil {
		t.Fatalf("gather: %v", err)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Connection("tcp", "admitted")
	m.SessionOpened()
	m.Move(lobby.MoveAccepted)
	m.TableStarted(lobby.TableSnapshot{})
	if m.Registry() != nil {
		t.Fatalf("expected nil registry")
	}
}
