package checkers

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func sq(r, c int) Square { return Square{Row: r, Col: c} }

func mv(r1, c1, r2, c2 int) Move { return Move{From: sq(r1, c1), To: sq(r2, c2)} }

// position builds a game with only the given pieces on the board.
func position(turn Color, pieces map[Square]Cell) *Game {
	g := &Game{Turn: turn}
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			g.Board[r][c] = Empty
		}
	}
	for s, cell := range pieces {
		g.Board[s.Row][s.Col] = cell
	}
	return g
}

func TestNewGameLayout(t *testing.T) {
	g := NewGame()
	require.Equal(t, 12, g.Board.Count(White))
	require.Equal(t, 12, g.Board.Count(Black))
	require.Equal(t, White, g.Turn)
	require.Equal(t, Running, g.Result)
	require.Nil(t, g.Pending)

	want := ".b.b.b.b" + "b.b.b.b." + ".b.b.b.b" +
		"........" + "........" +
		"w.w.w.w." + ".w.w.w.w" + "w.w.w.w."
	require.Equal(t, want, g.Board.String())
}

func TestParseBoardRoundTrip(t *testing.T) {
	g := NewGame()
	b, ok := ParseBoard(g.Board.String())
	require.True(t, ok)
	require.Equal(t, g.Board, b)

	_, ok = ParseBoard("short")
	require.False(t, ok)
	_, ok = ParseBoard(g.Board.String()[:63] + "x")
	require.False(t, ok)
}

func TestOpeningMoves(t *testing.T) {
	cases := []struct {
		name  string
		move  Move
		legal bool
	}{
		{"forward slide", mv(5, 0, 4, 1), true},
		{"not diagonal", mv(5, 0, 4, 0), false},
		{"light destination", mv(5, 2, 4, 2), false},
		{"two squares without capture", mv(5, 2, 3, 4), false},
		{"three squares", mv(5, 2, 2, 5), false},
		{"occupied destination", mv(6, 1, 5, 2), false},
		{"empty source", mv(4, 1, 3, 2), false},
		{"opponent piece", mv(2, 1, 3, 0), false},
		{"out of bounds", mv(5, 0, 4, -1), false},
		{"negative row", mv(-1, 0, 0, 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.legal, IsLegal(NewGame(), tc.move))
		})
	}
}

func TestApplyRejectsWithoutMutation(t *testing.T) {
	g := NewGame()
	before := *g
	require.False(t, Apply(g, mv(5, 0, 4, 0)))
	require.Equal(t, before, *g)
}

func TestSimpleMoveFlipsTurn(t *testing.T) {
	g := NewGame()
	require.True(t, Apply(g, mv(5, 0, 4, 1)))
	require.Equal(t, Black, g.Turn)
	require.Equal(t, WhiteMan, g.Board.At(sq(4, 1)))
	require.Equal(t, Empty, g.Board.At(sq(5, 0)))
	require.Equal(t, 1, g.Plies)
	require.Equal(t, Running, g.Result)

	// white may not move twice
	require.False(t, IsLegal(g, mv(5, 2, 4, 3)))
	require.True(t, Apply(g, mv(2, 1, 3, 0)))
	require.Equal(t, White, g.Turn)
}

func TestMenMoveForwardOnly(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(4, 3): WhiteMan,
		sq(1, 0): BlackMan,
	})
	require.False(t, IsLegal(g, mv(4, 3, 5, 4)))
	require.True(t, IsLegal(g, mv(4, 3, 3, 4)))

	g.Turn = Black
	require.False(t, IsLegal(g, mv(1, 0, 0, 1)))
	require.True(t, IsLegal(g, mv(1, 0, 2, 1)))
}

func TestKingMovesAnyDirection(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(4, 3): WhiteKing,
		sq(1, 0): BlackMan,
	})
	for _, m := range []Move{mv(4, 3, 3, 2), mv(4, 3, 3, 4), mv(4, 3, 5, 2), mv(4, 3, 5, 4)} {
		require.True(t, IsLegal(g, m), "%v", m)
	}
}

func TestMandatoryCapture(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(5, 2): WhiteMan,
		sq(5, 6): WhiteMan,
		sq(4, 3): BlackMan,
		sq(0, 7): BlackMan,
	})
	require.True(t, HasAnyCapture(&g.Board, White))
	// geometrically fine, but a capture exists elsewhere
	require.False(t, IsLegal(g, mv(5, 6, 4, 5)))
	require.False(t, IsLegal(g, mv(5, 2, 4, 1)))
	require.True(t, IsLegal(g, mv(5, 2, 3, 4)))
}

func TestCaptureNeedsOpponentInMiddle(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(5, 2): WhiteMan,
		sq(4, 3): WhiteMan,
		sq(0, 1): BlackMan,
	})
	require.False(t, IsLegal(g, mv(5, 2, 3, 4)))

	g.Board[4][3] = Empty
	require.False(t, IsLegal(g, mv(5, 2, 3, 4)))
}

func TestManCannotCaptureBackward(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(3, 2): WhiteMan,
		sq(4, 3): BlackMan,
		sq(0, 7): BlackMan,
	})
	require.False(t, CanCaptureFrom(&g.Board, sq(3, 2)))
	require.False(t, IsLegal(g, mv(3, 2, 5, 4)))

	g.Board[3][2] = WhiteKing
	require.True(t, CanCaptureFrom(&g.Board, sq(3, 2)))
	require.True(t, IsLegal(g, mv(3, 2, 5, 4)))
}

func TestCaptureWithoutChain(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(5, 2): WhiteMan,
		sq(4, 3): BlackMan,
		sq(0, 7): BlackMan,
	})
	require.True(t, Apply(g, mv(5, 2, 3, 4)))
	require.Nil(t, g.Pending)
	require.Equal(t, Black, g.Turn)
	require.Equal(t, Empty, g.Board.At(sq(4, 3)))
	require.Equal(t, WhiteMan, g.Board.At(sq(3, 4)))
	require.Equal(t, Running, g.Result)
}

func TestCaptureChain(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(6, 1): WhiteMan,
		sq(6, 5): WhiteMan,
		sq(5, 2): BlackMan,
		sq(3, 4): BlackMan,
		sq(0, 1): BlackMan,
	})
	require.True(t, Apply(g, mv(6, 1, 4, 3)))
	require.NotNil(t, g.Pending)
	require.Equal(t, sq(4, 3), *g.Pending)
	require.Equal(t, White, g.Turn)

	// only the same piece, only a capture
	require.False(t, IsLegal(g, mv(6, 5, 5, 6)))
	require.False(t, IsLegal(g, mv(4, 3, 3, 2)))
	before := *g
	require.False(t, Apply(g, mv(6, 5, 5, 4)))
	require.Equal(t, before, *g)

	require.True(t, Apply(g, mv(4, 3, 2, 5)))
	require.Nil(t, g.Pending)
	require.Equal(t, Black, g.Turn)
	require.Equal(t, 1, g.Board.Count(Black))
	require.Equal(t, Running, g.Result)
}

func TestPromotion(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(1, 2): WhiteMan,
		sq(5, 6): BlackMan,
	})
	require.True(t, Apply(g, mv(1, 2, 0, 1)))
	require.Equal(t, WhiteKing, g.Board.At(sq(0, 1)))

	g = position(Black, map[Square]Cell{
		sq(6, 3): BlackMan,
		sq(2, 1): WhiteMan,
	})
	require.True(t, Apply(g, mv(6, 3, 7, 4)))
	require.Equal(t, BlackKing, g.Board.At(sq(7, 4)))
}

func TestPromotionOnFinalHopOfChain(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(4, 1): WhiteMan,
		sq(3, 2): BlackMan,
		sq(1, 4): BlackMan,
		sq(5, 6): BlackMan,
	})
	require.True(t, Apply(g, mv(4, 1, 2, 3)))
	require.Equal(t, WhiteMan, g.Board.At(sq(2, 3)))
	require.Equal(t, sq(2, 3), *g.Pending)

	require.True(t, Apply(g, mv(2, 3, 0, 5)))
	require.Equal(t, WhiteKing, g.Board.At(sq(0, 5)))
	require.Nil(t, g.Pending)
	require.Equal(t, Black, g.Turn)
}

func TestPromotedPieceContinuesAsKing(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(2, 1): WhiteMan,
		sq(1, 2): BlackMan,
		sq(1, 4): BlackMan,
	})
	require.True(t, Apply(g, mv(2, 1, 0, 3)))
	require.Equal(t, WhiteKing, g.Board.At(sq(0, 3)))
	require.NotNil(t, g.Pending)
	require.Equal(t, sq(0, 3), *g.Pending)
	require.Equal(t, White, g.Turn)

	require.True(t, Apply(g, mv(0, 3, 2, 5)))
	require.Equal(t, WhiteWin, g.Result)
}

func TestEliminationWins(t *testing.T) {
	g := position(White, map[Square]Cell{
		sq(5, 2): WhiteMan,
		sq(4, 3): BlackMan,
	})
	require.True(t, Apply(g, mv(5, 2, 3, 4)))
	require.Equal(t, WhiteWin, g.Result)
	require.False(t, IsLegal(g, mv(3, 4, 2, 3)))

	g = position(Black, map[Square]Cell{
		sq(3, 2): BlackMan,
		sq(4, 3): WhiteMan,
	})
	require.True(t, Apply(g, mv(3, 2, 5, 4)))
	require.Equal(t, BlackWin, g.Result)
}

func TestEvaluateResult(t *testing.T) {
	cases := []struct {
		name   string
		pieces map[Square]Cell
		want   Result
	}{
		{"both blocked", map[Square]Cell{sq(0, 1): WhiteMan, sq(7, 0): BlackMan}, Draw},
		{"white blocked", map[Square]Cell{sq(0, 1): WhiteMan, sq(3, 2): BlackMan}, BlackWin},
		{"black blocked", map[Square]Cell{sq(4, 3): WhiteMan, sq(7, 0): BlackMan}, WhiteWin},
		{"no pieces", map[Square]Cell{}, Draw},
		{"white alone", map[Square]Cell{sq(4, 3): WhiteKing}, WhiteWin},
		{"both mobile", map[Square]Cell{sq(4, 3): WhiteMan, sq(1, 2): BlackMan}, Running},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, turn := range []Color{White, Black} {
				g := position(turn, tc.pieces)
				require.Equal(t, tc.want, EvaluateResult(g))
				require.Equal(t, tc.want, g.Result)
			}
		})
	}
}

func legalMoves(g *Game) []Move {
	var out []Move
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			for _, d := range allDirections {
				for _, k := range []int{1, 2} {
					m := mv(r, c, r+k*d[0], c+k*d[1])
					if IsLegal(g, m) {
						out = append(out, m)
					}
				}
			}
		}
	}
	return out
}

func TestRandomPlayKeepsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for game := 0; game < 50; game++ {
		g := NewGame()
		for ply := 0; ply < 300 && g.Result == Running; ply++ {
			moves := legalMoves(g)
			if len(moves) == 0 {
				// the side to move is stuck while the other side can still move
				break
			}
			if g.Pending != nil {
				for _, m := range moves {
					require.Equal(t, *g.Pending, m.From)
				}
			}
			require.True(t, Apply(g, moves[rng.Intn(len(moves))]))

			for r := 0; r < Size; r++ {
				for c := 0; c < Size; c++ {
					if !sq(r, c).Dark() {
						require.Equal(t, Empty, g.Board[r][c])
					}
				}
			}
			require.LessOrEqual(t, g.Board.Count(White), 12)
			require.LessOrEqual(t, g.Board.Count(Black), 12)
			for c := 0; c < Size; c++ {
				require.NotEqual(t, WhiteMan, g.Board[0][c])
				require.NotEqual(t, BlackMan, g.Board[Size-1][c])
			}
		}
	}
}
