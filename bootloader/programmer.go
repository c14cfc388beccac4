// Package bootloader streams firmware images to boards over the block
// upload protocol: reset, start-load, then per 64-byte block an address
// frame followed by eight data frames, and finally a verify command. The
// protocol is fire-and-forget on the wire; the only feedback is whether
// each frame made it onto the bus.
package bootloader

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/seadrive/retaincan/bus"

	"go.einride.tech/can"
)

// Bus is the transport slice an upload drives. The protocol never waits
// for answers, so sending is all it needs. *bus.Bus satisfies it.
type Bus interface {
	Send(ctx context.Context, f can.Frame) error
}

// Config carries the upload timing knobs.
type Config struct {
	// ResetSettle is how long the target gets to come back up after the
	// reset command before the load starts.
	ResetSettle time.Duration
}

// DefaultConfig returns the timings the boot ROMs are qualified against.
func DefaultConfig() Config {
	return Config{ResetSettle: 100 * time.Millisecond}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.ResetSettle < 0 {
		return fmt.Errorf("reset settle must not be negative, got %v", c.ResetSettle)
	}
	return nil
}

// Progress is called after each completed block with the block's bus
// address and the overall word counts.
type Progress func(address uint32, wordsSent, totalWords int)

// Programmer uploads firmware images to devices. It is not safe for
// concurrent use; one upload owns the bus for its whole duration.
type Programmer struct {
	bus      Bus
	cfg      Config
	logger   *log.Logger
	progress Progress
	steps    int
}

// Option adjusts a Programmer at construction time.
type Option func(*Programmer)

// WithConfig replaces the default upload timings.
func WithConfig(cfg Config) Option {
	return func(p *Programmer) { p.cfg = cfg }
}

// WithLogger directs diagnostic output to l. A nil logger keeps the
// programmer silent.
func WithLogger(l *log.Logger) Option {
	return func(p *Programmer) { p.logger = l }
}

// WithProgress installs a per-block progress callback.
func WithProgress(fn Progress) Option {
	return func(p *Programmer) { p.progress = fn }
}

// New binds a programmer to a transport.
func New(b Bus, opts ...Option) *Programmer {
	p := &Programmer{
		bus: b,
		cfg: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Steps reports the phase counter of the last upload. Commands and address
// frames that went out count up while each finished block counts back down;
// a failed command or address zeroes it. A clean upload ends on a small
// positive number and a zero points at the frame that never made it.
func (p *Programmer) Steps() int { return p.steps }

// Program uploads img to the device whose command window starts at
// deviceID. The image cursor is rewound first, so a Programmer can be
// reused and a previously aborted image re-sent from the top. On a data
// failure the cursor is stepped back below the failed block and reported
// in the UploadError, leaving the image positioned for a caller that wants
// to resume by other means.
func (p *Programmer) Program(ctx context.Context, deviceID uint32, img *Image) error {
	p.steps = 0
	img.Reset()
	p.logf("bootloader: programming 0x%03X, %d words", deviceID, img.Words())

	if err := p.command(ctx, deviceID+cmdReset); err != nil {
		p.steps = 0
		return &UploadError{Phase: PhaseReset, DeviceID: deviceID, Cursor: img.Cursor(), Err: err}
	}
	p.steps++
	if err := p.settle(ctx); err != nil {
		return &UploadError{Phase: PhaseReset, DeviceID: deviceID, Cursor: img.Cursor(), Err: err}
	}

	if err := p.command(ctx, deviceID+cmdStartLoad); err != nil {
		p.steps = 0
		return &UploadError{Phase: PhaseStart, DeviceID: deviceID, Cursor: img.Cursor(), Err: err}
	}
	p.steps++

	var addr uint32
	for !img.exhausted() {
		if err := p.sendAddress(ctx, deviceID, addr); err != nil {
			p.steps = 0
			return &UploadError{Phase: PhaseAddress, DeviceID: deviceID, Cursor: img.Cursor(), Err: err}
		}
		p.steps++

		// A block is always eight full frames; the tail of a short image
		// rides out as 0xFF padding.
		for i := 0; i < framesPerBlock; i++ {
			f := dataFrame(deviceID, img)
			if err := p.bus.Send(ctx, f); err != nil {
				img.rewind(rewindWords)
				return &UploadError{Phase: PhaseData, DeviceID: deviceID, Cursor: img.Cursor(), Err: err}
			}
		}
		p.steps--
		if p.progress != nil {
			p.progress(addr, img.Cursor(), img.Words())
		}
		addr += blockBytes
	}

	if err := p.command(ctx, deviceID+cmdVerify); err != nil {
		p.steps = 0
		return &UploadError{Phase: PhaseVerify, DeviceID: deviceID, Cursor: img.Cursor(), Err: err}
	}
	p.steps++

	p.logf("bootloader: programmed 0x%03X, %d words, top address 0x%04X", deviceID, img.Words(), img.Top())
	return nil
}

const (
	wordsPerFrame  = 4
	framesPerBlock = 8
	blockBytes     = wordsPerFrame * framesPerBlock * 2
	rewindWords    = 8
)

// command sends the all-zero payload every command slot expects.
func (p *Programmer) command(ctx context.Context, id uint32) error {
	return p.bus.Send(ctx, bus.NewFrame(id, make([]byte, can.MaxDataLength)))
}

// sendAddress announces where the next block of data lands.
func (p *Programmer) sendAddress(ctx context.Context, deviceID, addr uint32) error {
	data := make([]byte, can.MaxDataLength)
	data[0] = byte(addr)
	data[1] = byte(addr >> 8)
	return p.bus.Send(ctx, bus.NewFrame(deviceID+cmdAddress, data))
}

// dataFrame consumes up to four words from the image, low byte first, and
// pads the rest of the frame with 0xFF once the image runs out.
func dataFrame(deviceID uint32, img *Image) can.Frame {
	data := make([]byte, can.MaxDataLength)
	for i := range data {
		data[i] = 0xFF
	}
	for i := 0; i < len(data); i += 2 {
		w, ok := img.peek()
		if !ok {
			break
		}
		data[i] = byte(w)
		data[i+1] = byte(w >> 8)
		img.advance()
	}
	return bus.NewFrame(deviceID+cmdData, data)
}

// settle pauses for the configured delay, honoring cancellation.
func (p *Programmer) settle(ctx context.Context) error {
	if p.cfg.ResetSettle <= 0 {
		return nil
	}
	timer := time.NewTimer(p.cfg.ResetSettle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Programmer) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
