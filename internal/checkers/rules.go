package checkers

// forward is the row direction a man of color advances in.
func forward(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

var allDirections = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// directions lists the diagonal steps available to the piece in cell.
func directions(cell Cell) [][2]int {
	if cell.IsKing() {
		return allDirections[:]
	}
	f := forward(cell.Color())
	return [][2]int{{f, -1}, {f, 1}}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// IsLegal reports whether m may be played in g by the side to move.
func IsLegal(g *Game, m Move) bool {
	if g == nil || g.Result != Running {
		return false
	}
	from, to := m.From, m.To
	if !from.InBounds() || !to.InBounds() || !from.Dark() || !to.Dark() {
		return false
	}
	piece := g.Board.At(from)
	if !piece.IsPiece() || g.Board.At(to).IsPiece() {
		return false
	}
	if piece.Color() != g.Turn {
		return false
	}

	dr, dc := to.Row-from.Row, to.Col-from.Col
	if abs(dr) != abs(dc) || (abs(dr) != 1 && abs(dr) != 2) {
		return false
	}
	capture := abs(dr) == 2

	if g.Pending != nil && (*g.Pending != from || !capture) {
		return false
	}

	if !capture {
		// mandatory capture
		if HasAnyCapture(&g.Board, piece.Color()) {
			return false
		}
		return piece.IsKing() || dr == forward(piece.Color())
	}

	mid := g.Board.At(Square{Row: from.Row + dr/2, Col: from.Col + dc/2})
	if !mid.IsPiece() || mid.Color() == piece.Color() {
		return false
	}
	return piece.IsKing() || dr/2 == forward(piece.Color())
}

// Apply plays m if it is legal and reports whether the game changed.
func Apply(g *Game, m Move) bool {
	if !IsLegal(g, m) {
		return false
	}
	from, to := m.From, m.To
	piece := g.Board.At(from)
	g.Board.set(from, Empty)

	capture := abs(to.Row-from.Row) == 2
	if capture {
		g.Board.set(Square{Row: (from.Row + to.Row) / 2, Col: (from.Col + to.Col) / 2}, Empty)
	}

	switch {
	case piece == WhiteMan && to.Row == 0:
		piece = WhiteKing
	case piece == BlackMan && to.Row == Size-1:
		piece = BlackKing
	}
	g.Board.set(to, piece)
	g.Plies++

	if capture && CanCaptureFrom(&g.Board, to) {
		landing := to
		g.Pending = &landing
	} else {
		g.Pending = nil
		g.Turn = g.Turn.Opponent()
	}

	EvaluateResult(g)
	return true
}

// CanCaptureFrom reports whether the piece on sq has a jump available.
func CanCaptureFrom(b *Board, sq Square) bool {
	if !sq.InBounds() {
		return false
	}
	piece := b.At(sq)
	if !piece.IsPiece() {
		return false
	}
	for _, d := range directions(piece) {
		land := Square{Row: sq.Row + 2*d[0], Col: sq.Col + 2*d[1]}
		if !land.InBounds() || !land.Dark() || b.At(land).IsPiece() {
			continue
		}
		mid := b.At(Square{Row: sq.Row + d[0], Col: sq.Col + d[1]})
		if mid.IsPiece() && mid.Color() != piece.Color() {
			return true
		}
	}
	return false
}

// HasAnyCapture reports whether any piece of color can jump.
func HasAnyCapture(b *Board, color Color) bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			sq := Square{Row: r, Col: c}
			if cell := b.At(sq); cell.IsPiece() && cell.Color() == color && CanCaptureFrom(b, sq) {
				return true
			}
		}
	}
	return false
}

func canSlideFrom(b *Board, sq Square) bool {
	piece := b.At(sq)
	for _, d := range directions(piece) {
		dst := Square{Row: sq.Row + d[0], Col: sq.Col + d[1]}
		if dst.InBounds() && !b.At(dst).IsPiece() {
			return true
		}
	}
	return false
}

// HasAnyMove reports whether color has any move at all, captures first.
func HasAnyMove(b *Board, color Color) bool {
	if HasAnyCapture(b, color) {
		return true
	}
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			sq := Square{Row: r, Col: c}
			if cell := b.At(sq); cell.IsPiece() && cell.Color() == color && canSlideFrom(b, sq) {
				return true
			}
		}
	}
	return false
}

// EvaluateResult recomputes g.Result from the position and returns it.
// Move availability is checked for both colors regardless of whose turn it is.
func EvaluateResult(g *Game) Result {
	whites, blacks := g.Board.Count(White), g.Board.Count(Black)
	switch {
	case whites == 0 && blacks == 0:
		g.Result = Draw
		return g.Result
	case whites == 0:
		g.Result = BlackWin
		return g.Result
	case blacks == 0:
		g.Result = WhiteWin
		return g.Result
	}

	whiteCan, blackCan := HasAnyMove(&g.Board, White), HasAnyMove(&g.Board, Black)
	switch {
	case !whiteCan && !blackCan:
		g.Result = Draw
	case !whiteCan:
		g.Result = BlackWin
	case !blackCan:
		g.Result = WhiteWin
	default:
		g.Result = Running
	}
	return g.Result
}
