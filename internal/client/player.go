package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/park285/checkers-server/internal/checkers"
	"github.com/park285/checkers-server/internal/msgcat"
	"github.com/park285/checkers-server/internal/protocol"
	"github.com/park285/checkers-server/internal/transport"
)

// Options tunes the player loop.
type Options struct {
	// Stay keeps the session open after OPPONENT_LEFT, for servers that
	// requeue players.
	Stay bool
}

// Player relays between a terminal and a server connection.
type Player struct {
	conn  transport.Conn
	cat   *msgcat.Catalog
	in    *bufio.Reader
	out   io.Writer
	opts  Options
	color checkers.Color
	board *checkers.Board
}

func NewPlayer(conn transport.Conn, cat *msgcat.Catalog, in io.Reader, out io.Writer, opts Options) *Player {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	return &Player{conn: conn, cat: cat, in: bufio.NewReader(in), out: out, opts: opts}
}

// Run plays until the game ends, the user quits or the connection drops.
func (p *Player) Run(ctx context.Context) error {
	for {
		line, err := p.conn.ReadLine(ctx)
		if err != nil {
			p.warn(p.cat.Text("client.disconnected", nil, "Disconnected."))
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		done, err := p.handle(ctx, line)
		if err != nil || done {
			return err
		}
	}
}

func (p *Player) handle(ctx context.Context, line string) (bool, error) {
	switch {
	case strings.HasPrefix(line, protocol.WelcomePrefix+" "):
		color := strings.TrimPrefix(line, protocol.WelcomePrefix+" ")
		if color == checkers.Black.String() {
			p.color = checkers.Black
		} else {
			p.color = checkers.White
		}
		p.info(p.cat.Text("client.welcome", map[string]string{"Color": color}, line))
		return false, nil

	case strings.HasPrefix(line, protocol.BoardPrefix+" "):
		b, ok := checkers.ParseBoard(strings.TrimPrefix(line, protocol.BoardPrefix+" "))
		if !ok {
			p.warn("malformed board: " + line)
			return false, nil
		}
		p.board = &b
		title := p.cat.Text("client.board_title", map[string]string{"Color": p.color.String()}, "Board")
		fmt.Fprintln(p.out, pterm.DefaultBox.WithTitle(title).Sprint(FormatBoard(p.board, p.color)))
		return false, nil
	}

	switch line {
	case protocol.YourTurn, protocol.YourTurnContinueCapture:
		p.info(p.cat.Token(line))
		return p.promptMove(ctx)
	case protocol.YouWin:
		fmt.Fprintln(p.out, pterm.LightGreen(p.cat.Token(line)))
		return true, nil
	case protocol.YouLose, protocol.Draw:
		fmt.Fprintln(p.out, pterm.LightYellow(p.cat.Token(line)))
		return true, nil
	case protocol.ServerFull, protocol.ServerNoMoreGames:
		p.warn(p.cat.Token(line))
		return true, nil
	case protocol.OpponentLeft:
		p.warn(p.cat.Token(line))
		return !p.opts.Stay, nil
	}
	if strings.HasPrefix(line, "ERROR_") || line == protocol.MoveInvalid {
		p.warn(p.cat.Token(line))
		return false, nil
	}
	p.info(p.cat.Token(line))
	return false, nil
}

func (p *Player) promptMove(ctx context.Context) (bool, error) {
	prompt := p.cat.Text("client.prompt", nil, "Move (r1 c1 r2 c2) or quit")
	for {
		fmt.Fprint(p.out, prompt+": ")
		text, err := p.in.ReadString('\n')
		if err != nil && strings.TrimSpace(text) == "" {
			// input closed
			return true, p.conn.WriteLine(ctx, protocol.VerbQuit)
		}
		m, quit, perr := ParseInput(text)
		if quit {
			return true, p.conn.WriteLine(ctx, protocol.VerbQuit)
		}
		if perr != nil {
			p.warn(p.cat.Text("client.bad_input", nil, perr.Error()))
			continue
		}
		return false, p.conn.WriteLine(ctx, protocol.FormatMove(ToServer(m, p.color)))
	}
}

func (p *Player) info(msg string) { fmt.Fprintln(p.out, pterm.Info.Sprint(msg)) }

func (p *Player) warn(msg string) { fmt.Fprintln(p.out, pterm.Warning.Sprint(msg)) }
