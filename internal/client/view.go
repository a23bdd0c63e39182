// Package client is the interactive terminal player.
package client

import (
	"errors"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/park285/checkers-server/internal/checkers"
)

var errInput = errors.New("expected four coordinates between 0 and 7")

// view maps a square between the server's orientation and the player's.
// Black sees the board rotated so its own men sit at the bottom.
func view(sq checkers.Square, pov checkers.Color) checkers.Square {
	if pov == checkers.Black {
		return checkers.Square{Row: checkers.Size - 1 - sq.Row, Col: checkers.Size - 1 - sq.Col}
	}
	return sq
}

// ToServer converts a move typed in the player's orientation.
func ToServer(m checkers.Move, pov checkers.Color) checkers.Move {
	return checkers.Move{From: view(m.From, pov), To: view(m.To, pov)}
}

// ParseInput reads "r1 c1 r2 c2" or a quit word.
func ParseInput(s string) (m checkers.Move, quit bool, err error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "q", "quit", "exit":
		return m, true, nil
	}
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return m, false, errInput
	}
	var n [4]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 || v >= checkers.Size {
			return m, false, errInput
		}
		n[i] = v
	}
	m.From = checkers.Square{Row: n[0], Col: n[1]}
	m.To = checkers.Square{Row: n[2], Col: n[3]}
	return m, false, nil
}

// FormatBoard draws b from pov's side with coordinates in that orientation.
func FormatBoard(b *checkers.Board, pov checkers.Color) string {
	var sb strings.Builder
	sb.WriteString("    0 1 2 3 4 5 6 7\n")
	sb.WriteString("   -----------------\n")
	for vr := 0; vr < checkers.Size; vr++ {
		sb.WriteString(strconv.Itoa(vr))
		sb.WriteString(" | ")
		for vc := 0; vc < checkers.Size; vc++ {
			sq := view(checkers.Square{Row: vr, Col: vc}, pov)
			sb.WriteString(glyph(b.At(sq), sq.Dark()))
			sb.WriteByte(' ')
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("   -----------------")
	return sb.String()
}

func glyph(c checkers.Cell, dark bool) string {
	switch {
	case c == checkers.WhiteMan || c == checkers.WhiteKing:
		return pterm.LightYellow(string(c))
	case c == checkers.BlackMan || c == checkers.BlackKing:
		return pterm.LightRed(string(c))
	case dark:
		return pterm.Gray(".")
	default:
		return " "
	}
}
