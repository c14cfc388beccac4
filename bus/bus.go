// Package bus is the transport layer of the ECU service tools: it moves
// single CAN frames to and from one endpoint with bounded waits and no
// protocol knowledge. The retained-variable and bootloader engines sit on
// top of it.
package bus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.einride.tech/can"
)

const defaultQueueSize = 100 // software receive queue depth

// Bus is the connection-state machine over one Endpoint.
//
// While connected, a single pump goroutine owned by the Bus drains the
// endpoint into a bounded in-memory queue, the same role the vendor driver's
// receive queue plays; Receive pops from that queue with a timeout. The Bus
// itself is safe for concurrent use, but the request/response protocols above
// it are not: they correlate frames by identifier arithmetic alone, so callers
// must keep one outstanding operation per Bus.
type Bus struct {
	ep        Endpoint
	queueSize int
	logger    *log.Logger

	mu        sync.Mutex
	connected bool
	started   time.Time
	queue     chan Received
	filter    *Filter
	linkErr   error

	overruns atomic.Uint32
}

// Option adjusts a Bus at construction time.
type Option func(*Bus)

// WithQueueSize sets the receive queue depth. Frames arriving while the
// queue is full are dropped and reported as an overrun.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithLogger directs diagnostic output to l. A nil logger keeps the Bus
// silent.
func WithLogger(l *log.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// New wraps an endpoint in a disconnected Bus.
func New(ep Endpoint, opts ...Option) *Bus {
	b := &Bus{ep: ep, queueSize: defaultQueueSize}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connect opens the endpoint and starts the receive pump. Connecting an
// already-connected Bus is a no-op. A failed open leaves the Bus
// disconnected and reports ConnectError.
func (b *Bus) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected {
		return nil
	}
	if err := b.ep.Open(ctx); err != nil {
		return ConnectError{NewTransportError(fmt.Sprintf("open endpoint: %v", err))}
	}
	b.started = time.Now()
	b.queue = make(chan Received, b.queueSize)
	b.linkErr = nil
	b.overruns.Store(0)
	b.connected = true
	go b.pump(b.queue, b.started)
	b.logf("bus: connected")
	return nil
}

// Disconnect releases the endpoint. It is idempotent: disconnecting a Bus
// that never connected returns nil. There is no automatic reconnect; callers
// re-issue Connect.
func (b *Bus) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil
	}
	b.connected = false
	if err := b.ep.Close(); err != nil {
		return ResourceError{NewTransportError(fmt.Sprintf("close endpoint: %v", err))}
	}
	b.logf("bus: disconnected")
	return nil
}

// Connected reports whether Connect has succeeded and Disconnect has not
// been called since.
func (b *Bus) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Send transmits one frame. It fails with NotConnectedError before Connect
// and TransmitFullError when the endpoint rejects the frame.
func (b *Bus) Send(ctx context.Context, f can.Frame) error {
	b.mu.Lock()
	ep, ok := b.ep, b.connected
	b.mu.Unlock()
	if !ok {
		return NotConnectedError{}
	}
	if err := ep.Send(ctx, f); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return TransmitFullError{NewTransportError(fmt.Sprintf("transmit 0x%03X: %v", f.ID, err))}
	}
	return nil
}

// Receive returns the next queued inbound frame, waiting up to timeout.
// EmptyError means nothing arrived in time, the routine polling outcome
// rather than a fault. OverrunError reports frames dropped since the last
// call. LinkError means the endpoint died underneath the pump.
func (b *Bus) Receive(ctx context.Context, timeout time.Duration) (Received, error) {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		return Received{}, NotConnectedError{}
	}
	queue := b.queue
	b.mu.Unlock()

	if n := b.overruns.Swap(0); n > 0 {
		return Received{}, OverrunError{NewTransportError(fmt.Sprintf("receive queue dropped %d frames", n))}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Received{}, ctx.Err()
	case r, ok := <-queue:
		if !ok {
			return Received{}, b.pumpStopped()
		}
		return r, nil
	case <-timer.C:
		return Received{}, EmptyError{}
	}
}

// SetFilter narrows the identifiers the pump keeps to [low, high] of the
// given kind. The filter is advisory: callers must still check the
// identifier of anything they receive, because multiple ECUs share the bus.
func (b *Bus) SetFilter(low, high uint32, extended bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = &Filter{Low: low, High: high, Extended: extended}
}

// ClearFilter removes any advisory filter.
func (b *Bus) ClearFilter() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = nil
}

// pump drains the endpoint into queue until the endpoint closes or faults.
// Frames failing the advisory filter are discarded; frames arriving while
// the queue is full are counted as overruns.
func (b *Bus) pump(queue chan<- Received, started time.Time) {
	defer close(queue)
	for {
		f, err := b.ep.Recv()
		if err != nil {
			b.mu.Lock()
			if b.connected {
				// The link died; Disconnect was not the cause.
				b.linkErr = err
			}
			b.mu.Unlock()
			return
		}
		if !b.wants(f) {
			continue
		}
		select {
		case queue <- Received{Frame: f, Timestamp: timestampSince(started)}:
		default:
			b.overruns.Add(1)
			b.logf("bus: receive queue full, dropped frame 0x%03X", f.ID)
		}
	}
}

func (b *Bus) wants(f can.Frame) bool {
	b.mu.Lock()
	flt := b.filter
	b.mu.Unlock()
	if flt == nil {
		return true
	}
	return flt.matches(f)
}

// pumpStopped classifies a closed receive queue: a Disconnect race yields
// NotConnectedError, anything else is a link fault.
func (b *Bus) pumpStopped() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return NotConnectedError{}
	}
	msg := "receive pump stopped"
	if b.linkErr != nil && !errors.Is(b.linkErr, context.Canceled) {
		msg = fmt.Sprintf("receive pump stopped: %v", b.linkErr)
	}
	return LinkError{NewTransportError(msg)}
}

func (b *Bus) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}
