package checkers

import "strings"

// Size is the number of rows and columns on the board.
const Size = 8

// Cell is the content of one square. The byte value doubles as the wire
// character used in BOARD messages.
type Cell byte

const (
	Empty     Cell = '.'
	WhiteMan  Cell = 'w'
	WhiteKing Cell = 'W'
	BlackMan  Cell = 'b'
	BlackKing Cell = 'B'
)

// Color identifies a side.
type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "BLACK"
	}
	return "WHITE"
}

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Result is the lifecycle outcome of a game.
type Result int

const (
	Running Result = iota
	WhiteWin
	BlackWin
	Draw
)

func (r Result) String() string {
	switch r {
	case WhiteWin:
		return "white"
	case BlackWin:
		return "black"
	case Draw:
		return "draw"
	default:
		return "running"
	}
}

// Winner reports the winning color for a decisive result.
func (r Result) Winner() (Color, bool) {
	switch r {
	case WhiteWin:
		return White, true
	case BlackWin:
		return Black, true
	default:
		return White, false
	}
}

// IsPiece reports whether the cell is occupied.
func (c Cell) IsPiece() bool { return c != Empty && c != 0 }

// IsKing reports whether the cell holds a promoted piece.
func (c Cell) IsKing() bool { return c == WhiteKing || c == BlackKing }

// Color returns the owner of the piece. Callers must check IsPiece first.
func (c Cell) Color() Color {
	if c == BlackMan || c == BlackKing {
		return Black
	}
	return White
}

// Square addresses a board position. Row 0 is white's far edge.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the square lies on the board.
func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < Size && s.Col >= 0 && s.Col < Size
}

// Dark reports whether the square is playable.
func (s Square) Dark() bool { return (s.Row+s.Col)%2 == 1 }

// Move is a single hop from one square to another.
type Move struct {
	From Square
	To   Square
}

// Board is the 8x8 grid of cells.
type Board [Size][Size]Cell

// At returns the cell at sq. sq must be in bounds.
func (b *Board) At(sq Square) Cell { return b[sq.Row][sq.Col] }

func (b *Board) set(sq Square, c Cell) { b[sq.Row][sq.Col] = c }

// String encodes the board row-major as 64 wire characters.
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow(Size * Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			cell := b[r][c]
			if cell == 0 {
				cell = Empty
			}
			sb.WriteByte(byte(cell))
		}
	}
	return sb.String()
}

// Count returns the number of pieces owned by color.
func (b *Board) Count(color Color) int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if cell := b[r][c]; cell.IsPiece() && cell.Color() == color {
				n++
			}
		}
	}
	return n
}

// Game is the full state of one match.
type Game struct {
	Board  Board
	Turn   Color
	Result Result
	// Pending is the square of a piece that must continue capturing.
	Pending *Square
	// Plies counts applied moves; every hop of a chain counts.
	Plies int
}

// NewGame returns a game in the standard starting position with white to move.
func NewGame() *Game {
	g := &Game{Turn: White, Result: Running}
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			sq := Square{Row: r, Col: c}
			switch {
			case !sq.Dark():
				g.Board.set(sq, Empty)
			case r <= 2:
				g.Board.set(sq, BlackMan)
			case r >= Size-3:
				g.Board.set(sq, WhiteMan)
			default:
				g.Board.set(sq, Empty)
			}
		}
	}
	return g
}

// ParseBoard decodes a 64-character wire board.
func ParseBoard(s string) (Board, bool) {
	var b Board
	if len(s) != Size*Size {
		return b, false
	}
	for i := 0; i < len(s); i++ {
		switch Cell(s[i]) {
		case Empty, WhiteMan, WhiteKing, BlackMan, BlackKing:
			b[i/Size][i%Size] = Cell(s[i])
		default:
			return b, false
		}
	}
	return b, true
}
