package lobby

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/checkers-server/internal/checkers"
	"github.com/park285/checkers-server/internal/obslog"
	"github.com/park285/checkers-server/internal/protocol"
)

// Hub owns the session registry, the table pool and the waiting slot.
//
// Lock order: Hub.mu guards registry membership and Session.table; each
// Table.mu guards its game. The two are never held at the same time.
type Hub struct {
	mu       sync.Mutex
	sessions *slotPool
	bySlot   []*Session
	tables   *slotPool
	tableAt  []*Table
	waiting  *Session

	requeue   bool
	observers []Observer
	newID     func() string
	now       func() time.Time
}

// Option configures a Hub.
type Option func(*Hub)

// WithRequeue puts a player whose opponent left back into matchmaking.
func WithRequeue(on bool) Option { return func(h *Hub) { h.requeue = on } }

// WithObserver registers a table lifecycle observer.
func WithObserver(o Observer) Option {
	return func(h *Hub) {
		if o != nil {
			h.observers = append(h.observers, o)
		}
	}
}

// WithIDGenerator overrides the session and table ID source.
func WithIDGenerator(f func() string) Option {
	return func(h *Hub) {
		if f != nil {
			h.newID = f
		}
	}
}

// WithClock overrides the time source.
func WithClock(f func() time.Time) Option {
	return func(h *Hub) {
		if f != nil {
			h.now = f
		}
	}
}

// NewHub builds a hub with maxSessions player slots and maxTables game slots.
func NewHub(maxSessions, maxTables int, opts ...Option) *Hub {
	h := &Hub{
		sessions: newSlotPool(maxSessions),
		tables:   newSlotPool(maxTables),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	h.bySlot = make([]*Session, h.sessions.capacity())
	h.tableAt = make([]*Table, h.tables.capacity())
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Admit registers a new connection and runs matchmaking for it.
// It returns ErrServerFull or ErrNoMoreGames when a pool is exhausted; in
// both cases nothing stays allocated for the caller.
func (h *Hub) Admit(out Sender) (*Session, error) {
	h.mu.Lock()
	slot, ok := h.sessions.acquire()
	if !ok {
		h.mu.Unlock()
		return nil, ErrServerFull
	}
	s := &Session{ID: h.newID(), slot: slot, out: out}
	h.bySlot[slot] = s
	started, err := h.pairLocked(s)
	if err != nil {
		h.bySlot[slot] = nil
		h.sessions.release(slot)
		h.mu.Unlock()
		return nil, err
	}
	h.mu.Unlock()

	obslog.L().Info("session_admit", zap.String("session_id", s.ID), zap.Int("slot", slot))
	if started != nil {
		h.notifyStarted(*started)
	}
	return s, nil
}

// pairLocked either parks s in the waiting slot or seats it against the
// waiting player. Caller holds h.mu.
func (h *Hub) pairLocked(s *Session) (*TableSnapshot, error) {
	if h.waiting == nil || h.waiting == s {
		h.waiting = s
		s.send(protocol.WaitingForOpponent)
		return nil, nil
	}
	slot, ok := h.tables.acquire()
	if !ok {
		return nil, ErrNoMoreGames
	}
	white, black := h.waiting, s
	h.waiting = nil

	t := newTable(h.newID(), slot, white, black, h.now())
	h.tableAt[slot] = t
	white.table = t
	black.table = t

	board := protocol.Board(&t.game.Board)
	white.send(protocol.Welcome(checkers.White), board, protocol.YourTurn)
	black.send(protocol.Welcome(checkers.Black), board, protocol.OppTurn)

	// not yet reachable by any other goroutine
	snap := t.snapshot()
	obslog.L().Info("table_start",
		zap.String("game_id", t.ID),
		zap.Int("slot", slot),
		zap.String("white", white.ID),
		zap.String("black", black.ID),
	)
	return &snap, nil
}

func (h *Hub) tableOf(s *Session) *Table {
	h.mu.Lock()
	defer h.mu.Unlock()
	return s.table
}

// Move validates and applies a move for s, emitting every resulting line.
func (h *Hub) Move(s *Session, m checkers.Move) MoveOutcome {
	t := h.tableOf(s)
	if t == nil {
		s.send(protocol.ErrorNotInGame)
		return MoveNotInGame
	}

	t.mu.Lock()
	color, seated := t.colorOf(s)
	if t.closed || !seated {
		t.mu.Unlock()
		s.send(protocol.ErrorNotInGame)
		return MoveNotInGame
	}
	g := t.game
	if g.Turn != color {
		t.mu.Unlock()
		s.send(protocol.ErrorNotYourTurn)
		return MoveNotYourTurn
	}
	if !checkers.Apply(g, m) {
		if g.Pending != nil {
			s.send(protocol.MoveInvalid, protocol.YourTurnContinueCapture)
		} else {
			s.send(protocol.MoveInvalid, protocol.YourTurn)
		}
		t.mu.Unlock()
		return MoveInvalid
	}

	t.version++
	t.updated = h.now()
	op := t.seats[color.Opponent()]
	board := protocol.Board(&g.Board)
	s.send(protocol.MoveOK)
	op.send(protocol.OpponentMoved)
	s.send(board)
	op.send(board)

	if g.Result != checkers.Running {
		s.send(protocol.Outcome(g.Result, color))
		op.send(protocol.Outcome(g.Result, color.Opponent()))
		t.closed = true
		snap := t.snapshot()
		t.mu.Unlock()

		h.mu.Lock()
		h.releaseTableLocked(t)
		h.mu.Unlock()

		obslog.L().Info("table_finish",
			zap.String("game_id", t.ID),
			zap.String("result", snap.Result),
			zap.Int("plies", snap.Plies),
		)
		h.notifyClosed(snap, ReasonFinished)
		return MoveFinished
	}

	if g.Pending != nil {
		s.send(protocol.YourTurnContinueCapture)
		op.send(protocol.OppTurnCaptureChain)
	} else {
		op.send(protocol.YourTurn)
		s.send(protocol.OppTurn)
	}
	snap := t.snapshot()
	t.mu.Unlock()

	h.notifyChanged(snap)
	return MoveAccepted
}

// BadFormat answers a malformed MOVE with ERROR_BAD_FORMAT followed by a
// prompt describing the session's actual state.
func (h *Hub) BadFormat(s *Session) {
	t := h.tableOf(s)
	if t == nil {
		s.send(protocol.ErrorBadFormat)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s.send(protocol.ErrorBadFormat)
	color, seated := t.colorOf(s)
	if t.closed || !seated {
		return
	}
	switch {
	case t.game.Turn != color:
		s.send(protocol.OppTurn)
	case t.game.Pending != nil:
		s.send(protocol.YourTurnContinueCapture)
	default:
		s.send(protocol.YourTurn)
	}
}

// Leave removes s from the hub. Its opponent, if any, receives OPPONENT_LEFT
// and the table is released. Calling Leave more than once is harmless.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	s.leaving = true
	t := s.table
	if h.waiting == s {
		h.waiting = nil
	}
	h.mu.Unlock()

	var (
		closed *TableSnapshot
		op     *Session
	)
	if t != nil {
		t.mu.Lock()
		if !t.closed {
			t.closed = true
			t.version++
			t.updated = h.now()
			op = t.opponentOf(s)
			op.send(protocol.OpponentLeft)
			snap := t.snapshot()
			closed = &snap
		}
		t.mu.Unlock()
	}

	var started *TableSnapshot
	h.mu.Lock()
	if t != nil {
		h.releaseTableLocked(t)
	}
	s.table = nil
	if h.waiting == s {
		h.waiting = nil
	}
	released := false
	if s.slot >= 0 && s.slot < len(h.bySlot) && h.bySlot[s.slot] == s {
		h.bySlot[s.slot] = nil
		h.sessions.release(s.slot)
		released = true
	}
	// a peer that is itself leaving must not be seated again
	if op != nil && h.requeue && !op.leaving && h.bySlot[op.slot] == op && op.table == nil {
		snap, err := h.pairLocked(op)
		if err != nil {
			obslog.L().Warn("requeue_failed", zap.String("session_id", op.ID), zap.Error(err))
		}
		started = snap
	}
	h.mu.Unlock()

	if released {
		obslog.L().Info("session_leave", zap.String("session_id", s.ID))
	}
	if closed != nil {
		obslog.L().Info("table_abandon", zap.String("game_id", closed.ID), zap.String("leaver", s.ID))
		h.notifyClosed(*closed, ReasonAbandoned)
	}
	if started != nil {
		h.notifyStarted(*started)
	}
}

// releaseTableLocked frees t's slot and detaches its seats. Caller holds h.mu.
func (h *Hub) releaseTableLocked(t *Table) {
	if t.slot >= 0 && t.slot < len(h.tableAt) && h.tableAt[t.slot] == t {
		h.tableAt[t.slot] = nil
		h.tables.release(t.slot)
	}
	for _, seat := range t.seats {
		if seat != nil && seat.table == t {
			seat.table = nil
		}
	}
}

// Stats reports current pool usage.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		Sessions:         h.sessions.inUse(),
		SessionsCapacity: h.sessions.capacity(),
		Tables:           h.tables.inUse(),
		TablesCapacity:   h.tables.capacity(),
		Waiting:          h.waiting != nil,
	}
}

// Tables returns snapshots of every occupied table.
func (h *Hub) Tables() []TableSnapshot {
	h.mu.Lock()
	live := make([]*Table, 0, h.tables.inUse())
	for _, t := range h.tableAt {
		if t != nil {
			live = append(live, t)
		}
	}
	h.mu.Unlock()

	out := make([]TableSnapshot, 0, len(live))
	for _, t := range live {
		t.mu.Lock()
		if !t.closed {
			out = append(out, t.snapshot())
		}
		t.mu.Unlock()
	}
	return out
}

func (h *Hub) notifyStarted(snap TableSnapshot) {
	for _, o := range h.observers {
		o.TableStarted(snap)
	}
}

func (h *Hub) notifyChanged(snap TableSnapshot) {
	for _, o := range h.observers {
		o.TableChanged(snap)
	}
}

func (h *Hub) notifyClosed(snap TableSnapshot, reason CloseReason) {
	for _, o := range h.observers {
		o.TableClosed(snap, reason)
	}
}
