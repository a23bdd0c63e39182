package server

import "sync"

// outbox is a bounded per-connection queue of outbound lines. Send never
// blocks; a full queue marks the outbox stalled and stops accepting lines.
type outbox struct {
	mu      sync.Mutex
	queue   []string
	limit   int
	closed  bool
	stalled bool
	wake    chan struct{}
}

func newOutbox(limit int) *outbox {
	if limit <= 0 {
		limit = 256
	}
	return &outbox{limit: limit, wake: make(chan struct{}, 1)}
}

func (o *outbox) Send(lines ...string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if len(o.queue)+len(lines) > o.limit {
		o.closed = true
		o.stalled = true
		o.queue = nil
	} else {
		o.queue = append(o.queue, lines...)
	}
	o.mu.Unlock()
	o.signal()
}

// close stops intake; lines already queued are still delivered.
func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// next blocks until lines are queued or the outbox is closed. done reports
// that nothing more will arrive after the returned batch.
func (o *outbox) next() (batch []string, done bool) {
	for {
		o.mu.Lock()
		if len(o.queue) > 0 {
			batch, o.queue = o.queue, nil
			o.mu.Unlock()
			return batch, false
		}
		if o.closed {
			o.mu.Unlock()
			return nil, true
		}
		o.mu.Unlock()

		<-o.wake
	}
}

func (o *outbox) isStalled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stalled
}
