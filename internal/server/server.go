// Package server runs the line protocol over accepted connections and
// drives the lobby for each of them.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/checkers-server/internal/lobby"
	"github.com/park285/checkers-server/internal/metrics"
	"github.com/park285/checkers-server/internal/obslog"
	"github.com/park285/checkers-server/internal/protocol"
	"github.com/park285/checkers-server/internal/transport"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("server closed")

// Options tunes connection handling.
type Options struct {
	MaxLineLength int
	OutboxLimit   int
}

// Server accepts players and hands their commands to a lobby.Hub.
type Server struct {
	hub     *lobby.Hub
	metrics *metrics.Metrics
	opts    Options

	mu        sync.Mutex
	closing   bool
	listeners map[net.Listener]struct{}
	conns     map[transport.Conn]struct{}
	wg        sync.WaitGroup
}

// New builds a server. m may be nil.
func New(hub *lobby.Hub, m *metrics.Metrics, opts Options) *Server {
	return &Server{
		hub:       hub,
		metrics:   m,
		opts:      opts,
		listeners: make(map[net.Listener]struct{}),
		conns:     make(map[transport.Conn]struct{}),
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts TCP connections on ln until ctx is done or Shutdown is
// called. Each connection is served on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.listeners[ln] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.listeners, ln)
		s.mu.Unlock()
	}()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	obslog.L().Info("listen_start", zap.String("addr", ln.Addr().String()))
	for {
		c, err := ln.Accept()
		if err != nil {
			if s.isClosing() {
				return ErrServerClosed
			}
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		conn := transport.NewTCP(c, s.opts.MaxLineLength)
		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		go func() {
			defer s.untrack(conn)
			s.handle(ctx, conn)
		}()
	}
}

// HandleConn serves conn on the calling goroutine. The WebSocket gateway
// uses it for upgraded requests.
func (s *Server) HandleConn(ctx context.Context, conn transport.Conn) {
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)
	s.handle(ctx, conn)
}

// Shutdown stops accepting, closes every live connection and waits for
// their handlers to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	lns := make([]net.Listener, 0, len(s.listeners))
	for ln := range s.listeners {
		lns = append(lns, ln)
	}
	conns := make([]transport.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, ln := range lns {
		_ = ln.Close()
	}
	for _, c := range conns {
		_ = c.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		obslog.L().Info("server_shutdown", zap.Int("closed", len(conns)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) track(c transport.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c transport.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) handle(ctx context.Context, conn transport.Conn) {
	remote := conn.RemoteAddr()
	ob := newOutbox(s.opts.OutboxLimit)
	writerDone := make(chan struct{})
	go s.writeLoop(ctx, conn, ob, writerDone)

	sess, err := s.hub.Admit(ob)
	if err != nil {
		token, outcome := protocol.ServerFull, "server_full"
		if errors.Is(err, lobby.ErrNoMoreGames) {
			token, outcome = protocol.ServerNoMoreGames, "no_more_games"
		}
		s.metrics.Connection(conn.Kind(), outcome)
		obslog.L().Info("connection_reject",
			zap.String("remote", remote),
			zap.String("transport", conn.Kind()),
			zap.String("outcome", outcome),
		)
		ob.Send(token)
		ob.close()
		<-writerDone
		_ = conn.Close()
		return
	}

	s.metrics.Connection(conn.Kind(), "admitted")
	s.metrics.SessionOpened()
	log := obslog.L().With(zap.String("session_id", sess.ID), zap.String("remote", remote))
	log.Info("connection_open", zap.String("transport", conn.Kind()))

	s.readLoop(ctx, conn, sess, ob)

	s.hub.Leave(sess)
	s.metrics.SessionClosed()
	ob.close()
	select {
	case <-writerDone:
	case <-ctx.Done():
	}
	_ = conn.Close()
	log.Info("connection_close", zap.Bool("stalled", ob.isStalled()))
}

func (s *Server) readLoop(ctx context.Context, conn transport.Conn, sess *lobby.Session, ob *outbox) {
	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrLineTooLong) {
				ob.Send(protocol.ErrorUnknownCommand)
				continue
			}
			return
		}
		cmd, perr := protocol.Parse(line)
		switch {
		case perr == nil && cmd.Kind == protocol.KindQuit:
			return
		case errors.Is(perr, protocol.ErrBadFormat):
			s.hub.BadFormat(sess)
		case perr != nil:
			ob.Send(protocol.ErrorUnknownCommand)
		default:
			s.metrics.Move(s.hub.Move(sess, cmd.Move))
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, conn transport.Conn, ob *outbox, done chan<- struct{}) {
	defer close(done)
	for {
		batch, finished := ob.next()
		for _, line := range batch {
			if err := conn.WriteLine(ctx, line); err != nil {
				ob.close()
				_ = conn.Close()
				return
			}
		}
		if finished {
			if ob.isStalled() {
				s.metrics.OutboxStalled()
				obslog.L().Warn("outbox_stalled", zap.String("remote", conn.RemoteAddr()))
				_ = conn.Close()
			}
			return
		}
	}
}
