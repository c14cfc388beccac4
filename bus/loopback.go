package bus

import (
	"context"
	"net"
	"sync"

	"go.einride.tech/can"
)

const loopbackInboxSize = 1024

// Loopback is an in-memory endpoint used by tests and by dry runs without a
// cable attached. Every frame sent is recorded; an optional script sees each
// send and decides what inbound traffic it provokes, and whether the send
// itself fails. Inbound frames can also be injected directly.
type Loopback struct {
	mu     sync.Mutex
	opened bool
	done   chan struct{}
	inbox  chan can.Frame
	sent   []can.Frame
	script func(n int, f can.Frame) ([]can.Frame, error)

	// OpenError, when set, makes the next Open fail with it.
	OpenError error
}

// NewLoopback returns a closed loopback endpoint.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Script installs fn as the responder. For each frame sent, fn receives the
// 1-based send count and the frame; the frames it returns are queued as
// inbound traffic, and a non-nil error fails that send without recording it.
func (l *Loopback) Script(fn func(n int, f can.Frame) ([]can.Frame, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.script = fn
}

// Inject queues one inbound frame as if it had arrived from the bus.
// Frames injected while the inbox is full are dropped.
func (l *Loopback) Inject(f can.Frame) {
	l.mu.Lock()
	inbox := l.inbox
	l.mu.Unlock()
	if inbox == nil {
		return
	}
	select {
	case inbox <- f:
	default:
	}
}

// Sent returns a copy of every frame successfully sent since Open.
func (l *Loopback) Sent() []can.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]can.Frame, len(l.sent))
	copy(out, l.sent)
	return out
}

func (l *Loopback) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.OpenError != nil {
		return l.OpenError
	}
	if l.opened {
		return nil
	}
	l.opened = true
	l.done = make(chan struct{})
	l.inbox = make(chan can.Frame, loopbackInboxSize)
	l.sent = nil
	return nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.opened {
		return nil
	}
	l.opened = false
	close(l.done)
	return nil
}

func (l *Loopback) Send(ctx context.Context, f can.Frame) error {
	l.mu.Lock()
	if !l.opened {
		l.mu.Unlock()
		return net.ErrClosed
	}
	script := l.script
	n := len(l.sent) + 1
	l.mu.Unlock()

	var responses []can.Frame
	if script != nil {
		var err error
		responses, err = script(n, f)
		if err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.sent = append(l.sent, f)
	l.mu.Unlock()

	for _, r := range responses {
		l.Inject(r)
	}
	return nil
}

func (l *Loopback) Recv() (can.Frame, error) {
	l.mu.Lock()
	inbox, done := l.inbox, l.done
	l.mu.Unlock()
	if inbox == nil {
		return can.Frame{}, net.ErrClosed
	}
	select {
	case f := <-inbox:
		return f, nil
	case <-done:
		return can.Frame{}, net.ErrClosed
	}
}
