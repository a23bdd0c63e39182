package gamestore

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/checkers-server/internal/lobby"
	"github.com/park285/checkers-server/internal/obslog"
)

// Mirror feeds lobby table events to a Store from a background worker.
type Mirror struct {
	store   *Store
	queue   chan lobby.TableSnapshot
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

var _ lobby.Observer = (*Mirror)(nil)

// NewMirror starts the worker. buffer bounds pending snapshots; events
// arriving while it is full are dropped.
func NewMirror(store *Store, buffer int) *Mirror {
	if buffer <= 0 {
		buffer = 1024
	}
	m := &Mirror{
		store:   store,
		queue:   make(chan lobby.TableSnapshot, buffer),
		timeout: 2 * time.Second,
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Mirror) TableStarted(snap lobby.TableSnapshot) { m.enqueue(snap) }

func (m *Mirror) TableChanged(snap lobby.TableSnapshot) { m.enqueue(snap) }

func (m *Mirror) TableClosed(snap lobby.TableSnapshot, _ lobby.CloseReason) { m.enqueue(snap) }

func (m *Mirror) enqueue(snap lobby.TableSnapshot) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- snap:
	default:
		obslog.L().Warn("mirror_drop", zap.String("game_id", snap.ID), zap.Int64("version", snap.Version))
	}
}

func (m *Mirror) run() {
	defer close(m.done)
	for snap := range m.queue {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		err := m.store.Save(ctx, snap)
		cancel()
		if err != nil && !errors.Is(err, ErrStale) {
			obslog.L().Warn("mirror_save_failed", zap.String("game_id", snap.ID), zap.Error(err))
		}
	}
}

// Close stops intake and waits for queued snapshots to be written.
func (m *Mirror) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
