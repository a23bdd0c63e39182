// Package protocol holds the line vocabulary spoken between the checkers
// server and its clients.
package protocol

import (
	"errors"
	"strconv"
	"strings"

	"github.com/park285/checkers-server/internal/checkers"
)

// Server to client tokens.
const (
	ServerFull              = "SERVER_FULL"
	ServerNoMoreGames       = "SERVER_NO_MORE_GAMES"
	WaitingForOpponent      = "WAITING_FOR_OPPONENT"
	WelcomePrefix           = "WELCOME"
	BoardPrefix             = "BOARD"
	YourTurn                = "YOUR_TURN"
	OppTurn                 = "OPP_TURN"
	YourTurnContinueCapture = "YOUR_TURN_CONTINUE_CAPTURE"
	OppTurnCaptureChain     = "OPP_TURN_CAPTURE_CHAIN"
	MoveOK                  = "MOVE_OK"
	MoveInvalid             = "MOVE_INVALID"
	OpponentMoved           = "OPPONENT_MOVED"
	OpponentLeft            = "OPPONENT_LEFT"
	YouWin                  = "YOU_WIN"
	YouLose                 = "YOU_LOSE"
	Draw                    = "DRAW"
	ErrorBadFormat          = "ERROR_BAD_FORMAT"
	ErrorNotInGame          = "ERROR_NOT_IN_GAME"
	ErrorNotYourTurn        = "ERROR_NOT_YOUR_TURN"
	ErrorUnknownCommand     = "ERROR_UNKNOWN_COMMAND"
)

// Client to server verbs.
const (
	VerbMove = "MOVE"
	VerbQuit = "QUIT"
)

var (
	ErrBadFormat      = errors.New("malformed move command")
	ErrUnknownCommand = errors.New("unknown command")
)

// Welcome announces the assigned color.
func Welcome(c checkers.Color) string { return WelcomePrefix + " " + c.String() }

// Board encodes the full board state.
func Board(b *checkers.Board) string { return BoardPrefix + " " + b.String() }

// Outcome returns the result notice for the given side.
func Outcome(r checkers.Result, side checkers.Color) string {
	winner, decisive := r.Winner()
	switch {
	case !decisive:
		return Draw
	case winner == side:
		return YouWin
	default:
		return YouLose
	}
}

// Kind classifies an inbound line.
type Kind int

const (
	KindUnknown Kind = iota
	KindMove
	KindQuit
)

// Command is a parsed client line.
type Command struct {
	Kind Kind
	Move checkers.Move
}

// Parse classifies line. A line starting with MOVE that does not carry exactly
// four integers yields ErrBadFormat; anything unrecognised yields
// ErrUnknownCommand.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == VerbQuit {
		return Command{Kind: KindQuit}, nil
	}
	if !strings.HasPrefix(line, VerbMove) {
		return Command{Kind: KindUnknown}, ErrUnknownCommand
	}

	fields := strings.Fields(line)
	if len(fields) != 5 || fields[0] != VerbMove {
		return Command{Kind: KindMove}, ErrBadFormat
	}
	var n [4]int
	for i := range n {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return Command{Kind: KindMove}, ErrBadFormat
		}
		n[i] = v
	}
	return Command{
		Kind: KindMove,
		Move: checkers.Move{
			From: checkers.Square{Row: n[0], Col: n[1]},
			To:   checkers.Square{Row: n[2], Col: n[3]},
		},
	}, nil
}

// FormatMove renders a MOVE command line without the trailing newline.
func FormatMove(m checkers.Move) string {
	return VerbMove + " " + strconv.Itoa(m.From.Row) + " " + strconv.Itoa(m.From.Col) +
		" " + strconv.Itoa(m.To.Row) + " " + strconv.Itoa(m.To.Col)
}
