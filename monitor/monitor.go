// Package monitor ties the transport, the board catalog, the retained
// variable protocol and the firmware loader together behind one handle.
// Request and response identifiers are derived purely from the selected
// board, so every operation takes the monitor's mutex; one outstanding
// operation per bus handle is the protocol's concurrency limit, not an
// implementation shortcut.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/seadrive/retaincan/board"
	"github.com/seadrive/retaincan/bootloader"
	"github.com/seadrive/retaincan/bus"
	"github.com/seadrive/retaincan/retainvar"
)

// ErrNoBoard is returned by variable and snapshot operations invoked
// before SelectBoard.
var ErrNoBoard = errors.New("monitor: no board selected")

// Monitor is the top-level handle a host application works with.
type Monitor struct {
	mu         sync.Mutex
	bus        *bus.Bus
	session    *retainvar.Session
	prog       *bootloader.Programmer
	overrides  *board.Overrides
	sessionCfg retainvar.Config
	progCfg    bootloader.Config
	progress   bootloader.Progress
	logger     *log.Logger
}

// Option adjusts a Monitor at construction time.
type Option func(*Monitor)

// WithLogger directs diagnostic output of the monitor and everything it
// builds to l. A nil logger keeps them silent.
func WithLogger(l *log.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithOverrides applies site-specific board layout overrides to every
// board selected afterwards.
func WithOverrides(o *board.Overrides) Option {
	return func(m *Monitor) { m.overrides = o }
}

// WithSessionConfig replaces the protocol timings used for new sessions.
func WithSessionConfig(cfg retainvar.Config) Option {
	return func(m *Monitor) { m.sessionCfg = cfg }
}

// WithProgrammerConfig replaces the firmware upload timings.
func WithProgrammerConfig(cfg bootloader.Config) Option {
	return func(m *Monitor) { m.progCfg = cfg }
}

// WithProgress installs a per-block firmware upload progress callback.
func WithProgress(fn bootloader.Progress) Option {
	return func(m *Monitor) { m.progress = fn }
}

// New builds a monitor on an already constructed transport. The transport
// is owned by the monitor from here on; Connect and Disconnect go through
// the monitor so they serialize with in-flight operations.
func New(b *bus.Bus, opts ...Option) *Monitor {
	m := &Monitor{
		bus:        b,
		sessionCfg: retainvar.DefaultConfig(),
		progCfg:    bootloader.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.prog = bootloader.New(b,
		bootloader.WithConfig(m.progCfg),
		bootloader.WithLogger(m.logger),
		bootloader.WithProgress(m.progress),
	)
	return m
}

// Connect opens the underlying bus.
func (m *Monitor) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bus.Connect(ctx)
}

// Disconnect closes the underlying bus. Safe to call when not connected.
func (m *Monitor) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bus.Disconnect()
}

// Connected reports whether the underlying bus is open.
func (m *Monitor) Connected() bool { return m.bus.Connected() }

// SelectBoard binds the monitor to a board class, replacing any previous
// selection. Overrides loaded at construction apply here; per-session
// options (base, board index, timings) are passed through.
func (m *Monitor) SelectBoard(t board.Type, opts ...retainvar.SessionOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !knownType(t) {
		return fmt.Errorf("monitor: unknown board type %d", int(t))
	}
	desc := m.overrides.Descriptor(t)

	all := append([]retainvar.SessionOption{
		retainvar.WithConfig(m.sessionCfg),
		retainvar.WithLogger(m.logger),
	}, opts...)
	m.session = retainvar.NewSession(m.bus, desc, all...)
	m.logf("monitor: selected %v board, base 0x%03X", t, m.session.Base())
	return nil
}

func knownType(t board.Type) bool {
	for _, known := range board.Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Board returns the selected board's descriptor, or ok=false before any
// selection.
func (m *Monitor) Board() (board.Descriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return board.Descriptor{}, false
	}
	return m.session.Board(), true
}

// ReadVariable reads one retained variable from the selected board.
func (m *Monitor) ReadVariable(ctx context.Context, index int) (retainvar.Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return retainvar.Value{}, ErrNoBoard
	}
	return m.session.Read(ctx, index)
}

// WriteVariable writes one retained variable on the selected board.
// Success means the request went out; the protocol has no write
// acknowledgment, so callers wanting certainty read the variable back.
func (m *Monitor) WriteVariable(ctx context.Context, index int, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ErrNoBoard
	}
	return m.session.Write(ctx, index, value)
}

// ReadAll reads the selected board's whole variable table, recording
// per-variable failures instead of stopping at them.
func (m *Monitor) ReadAll(ctx context.Context) ([]retainvar.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ErrNoBoard
	}
	return m.session.ReadAll(ctx)
}

// ProgramFirmware uploads the image at imagePath to deviceID. A zero
// deviceID targets the selected board's base address.
func (m *Monitor) ProgramFirmware(ctx context.Context, deviceID uint32, imagePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if deviceID == 0 {
		if m.session == nil {
			return ErrNoBoard
		}
		deviceID = m.session.Base()
	}
	img, err := bootloader.LoadImageFile(imagePath)
	if err != nil {
		return err
	}
	return m.prog.Program(ctx, deviceID, img)
}

// Info is a summary of the current selection.
type Info struct {
	Board      board.Type
	Base       uint32
	BoardIndex int
	RequestID  uint32
	ResponseID uint32
	Variables  int
}

// Info describes the selected board, or ok=false before any selection.
func (m *Monitor) Info() (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Info{}, false
	}
	return Info{
		Board:      m.session.Board().Type(),
		Base:       m.session.Base(),
		BoardIndex: m.session.BoardIndex(),
		RequestID:  m.session.RequestID(),
		ResponseID: m.session.ResponseID(),
		Variables:  m.session.Board().Variables(),
	}, true
}

// Variable is one row of the selected board's table listing.
type Variable struct {
	Index   int
	Name    string
	Address uint32
	Length  uint8
}

// Variables lists the selected board's table in index order, or nil
// before any selection.
func (m *Monitor) Variables() []Variable {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	desc := m.session.Board()
	out := make([]Variable, desc.Variables())
	for i := range out {
		out[i] = Variable{
			Index:   i,
			Name:    desc.Name(i),
			Address: desc.Address(i),
			Length:  desc.Length(i),
		}
	}
	return out
}

// SaveSnapshot reads the whole board and writes the result to path. A
// non-empty key seals the file against tampering; restore needs the same
// key.
func (m *Monitor) SaveSnapshot(ctx context.Context, path string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ErrNoBoard
	}
	snap, err := retainvar.Take(ctx, m.session)
	if err != nil {
		return err
	}
	codec, err := retainvar.NewCodec(key)
	if err != nil {
		return err
	}
	data, err := codec.Encode(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	m.logf("monitor: saved %d values to %s", len(snap.Values), path)
	return nil
}

// RestoreSnapshot reads a snapshot file and writes its values back to the
// selected board. The snapshot must be of the same board class.
func (m *Monitor) RestoreSnapshot(ctx context.Context, path string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ErrNoBoard
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	codec, err := retainvar.NewCodec(key)
	if err != nil {
		return err
	}
	snap, err := codec.Decode(data)
	if err != nil {
		return err
	}
	if err := retainvar.Restore(ctx, m.session, snap); err != nil {
		return err
	}
	m.logf("monitor: restored %d values from %s", len(snap.Values), path)
	return nil
}

func (m *Monitor) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
