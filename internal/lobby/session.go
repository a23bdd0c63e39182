package lobby

import (
	"sync"
	"time"

	"github.com/park285/checkers-server/internal/checkers"
)

// Session is the registry record of one connection.
type Session struct {
	ID   string
	slot int
	out  Sender

	// guarded by Hub.mu
	table   *Table
	leaving bool
}

func (s *Session) send(lines ...string) {
	if s != nil && s.out != nil {
		s.out.Send(lines...)
	}
}

// Table is one occupied game slot.
type Table struct {
	ID   string
	slot int

	mu      sync.Mutex
	game    *checkers.Game
	seats   [2]*Session // indexed by checkers.Color
	closed  bool
	version int64
	started time.Time
	updated time.Time
}

func newTable(id string, slot int, white, black *Session, now time.Time) *Table {
	return &Table{
		ID:      id,
		slot:    slot,
		game:    checkers.NewGame(),
		seats:   [2]*Session{checkers.White: white, checkers.Black: black},
		version: 1,
		started: now,
		updated: now,
	}
}

func (t *Table) colorOf(s *Session) (checkers.Color, bool) {
	switch s {
	case t.seats[checkers.White]:
		return checkers.White, true
	case t.seats[checkers.Black]:
		return checkers.Black, true
	}
	return checkers.White, false
}

func (t *Table) opponentOf(s *Session) *Session {
	if c, ok := t.colorOf(s); ok {
		return t.seats[c.Opponent()]
	}
	return nil
}

// snapshot must be called with t.mu held or before the table is published.
func (t *Table) snapshot() TableSnapshot {
	snap := TableSnapshot{
		ID:        t.ID,
		Slot:      t.slot,
		Board:     t.game.Board.String(),
		Turn:      t.game.Turn.String(),
		Result:    t.game.Result.String(),
		Plies:     t.game.Plies,
		Version:   t.version,
		Closed:    t.closed,
		StartedAt: t.started,
		UpdatedAt: t.updated,
	}
	if w := t.seats[checkers.White]; w != nil {
		snap.WhiteID = w.ID
	}
	if b := t.seats[checkers.Black]; b != nil {
		snap.BlackID = b.ID
	}
	if t.game.Pending != nil {
		p := *t.game.Pending
		snap.Pending = &p
	}
	return snap
}
