// Package retainvar implements the retained-variable request/response
// protocol: reading and writing one persistent configuration variable at a
// time on an ECU addressed by (bus-address base, board index). Requests and
// responses are single frames correlated purely by identifier arithmetic,
// so a session must be the only outstanding operation on its bus.
package retainvar

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/seadrive/retaincan/board"
	"github.com/seadrive/retaincan/bus"

	"go.einride.tech/can"
)

// Bus is the transport slice the engine drives. *bus.Bus satisfies it.
type Bus interface {
	Send(ctx context.Context, f can.Frame) error
	Receive(ctx context.Context, timeout time.Duration) (bus.Received, error)
}

// Config carries the two timing knobs of the protocol. The settle delay
// gives the board time to assemble its answer before we start waiting;
// the response timeout bounds that wait and is the only cancellation the
// wire protocol itself has.
type Config struct {
	SettleDelay     time.Duration
	ResponseTimeout time.Duration
}

// DefaultConfig returns the timings the boards are qualified against.
func DefaultConfig() Config {
	return Config{
		SettleDelay:     10 * time.Millisecond,
		ResponseTimeout: 100 * time.Millisecond,
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative, got %v", c.SettleDelay)
	}
	if c.ResponseTimeout <= 0 {
		return fmt.Errorf("response timeout must be positive, got %v", c.ResponseTimeout)
	}
	return nil
}

// Session runs the protocol against one board instance. It is not safe for
// concurrent use: responses carry no correlation beyond the identifier, so
// two overlapping requests to the same board would steal each other's
// answers. Callers serialize, typically behind the service facade.
type Session struct {
	bus        Bus
	desc       board.Descriptor
	base       uint32
	boardIndex int
	cfg        Config
	logger     *log.Logger
}

// SessionOption adjusts a Session at construction time.
type SessionOption func(*Session)

// WithBase overrides the descriptor's default bus-address base.
func WithBase(base uint32) SessionOption {
	return func(s *Session) {
		if base != 0 {
			s.base = base
		}
	}
}

// WithBoardIndex addresses the nth instance of the board class on the bus.
func WithBoardIndex(n int) SessionOption {
	return func(s *Session) {
		if n >= 0 {
			s.boardIndex = n
		}
	}
}

// WithConfig replaces the default protocol timings.
func WithConfig(cfg Config) SessionOption {
	return func(s *Session) { s.cfg = cfg }
}

// WithLogger directs diagnostic output to l. A nil logger keeps the
// session silent.
func WithLogger(l *log.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession binds a board layout to a transport. The zero board index and
// the descriptor's own base are the defaults.
func NewSession(b Bus, desc board.Descriptor, opts ...SessionOption) *Session {
	s := &Session{
		bus:  b,
		desc: desc,
		base: desc.Base(),
		cfg:  DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Board returns the descriptor the session was built with.
func (s *Session) Board() board.Descriptor { return s.desc }

// Base returns the bus-address base the session addresses, which may have
// been overridden away from the descriptor's default.
func (s *Session) Base() uint32 { return s.base }

// BoardIndex returns which instance of the board class the session talks to.
func (s *Session) BoardIndex() int { return s.boardIndex }

// RequestID returns the identifier this session sends requests on.
func (s *Session) RequestID() uint32 { return RequestID(s.base, s.boardIndex) }

// ResponseID returns the identifier this session expects answers on.
func (s *Session) ResponseID() uint32 { return ResponseID(s.base, s.boardIndex) }

// Read fetches and decodes the variable at index. The exchange is one
// request frame, a settle delay, and a single bounded receive; anything on
// the wrong identifier inside that window is WrongResponderError, silence
// is NoResponseError. Callers decide whether to retry.
func (s *Session) Read(ctx context.Context, index int) (Value, error) {
	if index < 0 || index >= s.desc.Variables() {
		return Value{}, InvalidIndexError{Index: index}
	}
	addr := s.desc.Address(index)
	length := s.desc.Length(index)

	req := readRequest(s.RequestID(), addr, length)
	if err := s.bus.Send(ctx, req); err != nil {
		return Value{}, SendFailedError{NewProtocolError(fmt.Sprintf("read request for index %d: %v", index, err))}
	}

	if err := s.settle(ctx); err != nil {
		return Value{}, err
	}
	r, err := s.bus.Receive(ctx, s.cfg.ResponseTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return Value{}, ctx.Err()
		}
		return Value{}, NoResponseError{NewProtocolError(fmt.Sprintf("read index %d: %v", index, err))}
	}
	if want := s.ResponseID(); r.Frame.ID != want {
		return Value{}, WrongResponderError{Got: r.Frame.ID, Want: want}
	}

	v := decodeValue(r.Frame.Data)
	s.logf("retainvar: read %v[%d] %q = %v", s.desc.Type(), index, s.desc.Name(index), v)
	return v, nil
}

// Write stores value into the variable at index. The value is truncated to
// 32 bits on the wire; negative numbers travel as two's complement. The
// protocol has no write acknowledgment, so success means only that the
// request frame was sent. Callers wanting confirmation read the variable
// back.
func (s *Session) Write(ctx context.Context, index int, value int64) error {
	if index < 0 || index >= s.desc.Variables() {
		return InvalidIndexError{Index: index}
	}
	addr := s.desc.Address(index)
	length := s.desc.Length(index)

	req := writeRequest(s.RequestID(), addr, length, uint32(value))
	if err := s.bus.Send(ctx, req); err != nil {
		return SendFailedError{NewProtocolError(fmt.Sprintf("write request for index %d: %v", index, err))}
	}
	s.logf("retainvar: wrote %v[%d] %q = %d", s.desc.Type(), index, s.desc.Name(index), value)
	return nil
}

// Reading is one row of a bulk read: the variable's identity plus either
// its value or the per-variable failure.
type Reading struct {
	Index   int
	Name    string
	Address uint32
	Value   Value
	Err     error
}

// ReadAll reads every variable in the board's table in index order. It
// keeps going past per-variable failures, recording them in the returned
// slice; the only hard error is context cancellation.
func (s *Session) ReadAll(ctx context.Context) ([]Reading, error) {
	out := make([]Reading, 0, s.desc.Variables())
	for i := 0; i < s.desc.Variables(); i++ {
		v, err := s.Read(ctx, i)
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		out = append(out, Reading{
			Index:   i,
			Name:    s.desc.Name(i),
			Address: s.desc.Address(i),
			Value:   v,
			Err:     err,
		})
	}
	return out, nil
}

// settle pauses for the configured delay, honoring cancellation.
func (s *Session) settle(ctx context.Context) error {
	if s.cfg.SettleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
