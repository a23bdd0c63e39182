package lobby

import (
	"errors"
	"time"

	"github.com/park285/checkers-server/internal/checkers"
)

// Errors
var (
	ErrServerFull  = errors.New("no free session slot")
	ErrNoMoreGames = errors.New("no free game slot")
)

// Sender queues outbound protocol lines for one connection. Implementations
// must not block: the hub calls Send while holding its locks so that lines
// reach each connection in the order they were produced.
type Sender interface {
	Send(lines ...string)
}

// MoveOutcome classifies the handling of one MOVE command.
type MoveOutcome string

const (
	MoveAccepted    MoveOutcome = "accepted"
	MoveFinished    MoveOutcome = "finished"
	MoveInvalid     MoveOutcome = "invalid"
	MoveNotInGame   MoveOutcome = "not_in_game"
	MoveNotYourTurn MoveOutcome = "not_your_turn"
)

// CloseReason tells why a table was released.
type CloseReason string

const (
	ReasonFinished  CloseReason = "finished"
	ReasonAbandoned CloseReason = "abandoned"
)

// TableSnapshot is a copy of a table's state taken under its lock.
type TableSnapshot struct {
	ID        string           `json:"id"`
	Slot      int              `json:"slot"`
	WhiteID   string           `json:"white_id"`
	BlackID   string           `json:"black_id"`
	Board     string           `json:"board"`
	Turn      string           `json:"turn"`
	Result    string           `json:"result"`
	Pending   *checkers.Square `json:"pending,omitempty"`
	Plies     int              `json:"plies"`
	Version   int64            `json:"version"`
	Closed    bool             `json:"closed"`
	StartedAt time.Time        `json:"started_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Observer receives table lifecycle events. Calls happen after the hub has
// released its locks, on the goroutine that caused the change.
type Observer interface {
	TableStarted(snap TableSnapshot)
	TableChanged(snap TableSnapshot)
	TableClosed(snap TableSnapshot, reason CloseReason)
}

// Stats describes pool occupancy.
type Stats struct {
	Sessions         int  `json:"sessions"`
	SessionsCapacity int  `json:"sessions_capacity"`
	Tables           int  `json:"tables"`
	TablesCapacity   int  `json:"tables_capacity"`
	Waiting          bool `json:"waiting"`
}
