//go:build windows

package bus

import (
	"context"
	"fmt"
	"net"

	"github.com/amdf/ixxatvci3/candev"
	"go.einride.tech/can"
)

// btrPair holds SJA1000 bus timing register values for a 16 MHz clock.
type btrPair struct {
	btr0, btr1 byte
}

var ixxatTimings = map[Bitrate]btrPair{
	Bitrate1M:   {0x00, 0x14},
	Bitrate500K: {0x00, 0x1C},
	Bitrate250K: {0x01, 0x1C},
	Bitrate125K: {0x03, 0x1C},
	Bitrate100K: {0x43, 0x2F},
	Bitrate50K:  {0x47, 0x2F},
	Bitrate20K:  {0x53, 0x2F},
	Bitrate10K:  {0x67, 0x2F},
	Bitrate5K:   {0x7F, 0x7F},
}

// IXXAT drives an IXXAT USB-to-CAN adapter through the VCI3 driver. Only one
// adapter is supported per process; the channel name is ignored beyond
// logging because VCI3 opens the first device it finds.
type IXXAT struct {
	bitrate Bitrate

	device  candev.Device
	msgs    <-chan candev.Message
	running bool
}

// NewIXXAT returns an endpoint for the first attached IXXAT adapter.
func NewIXXAT(bitrate Bitrate) *IXXAT {
	return &IXXAT{bitrate: bitrate}
}

func (x *IXXAT) Open(ctx context.Context) error {
	timing, ok := ixxatTimings[x.bitrate]
	if !ok {
		return fmt.Errorf("no bus timing for bitrate %s", x.bitrate)
	}
	if err := x.device.Init(timing.btr0, timing.btr1); err != nil {
		return fmt.Errorf("init adapter at %s: %w", x.bitrate, err)
	}
	x.device.Run()
	x.msgs, _ = x.device.GetMsgChannelCopy()
	x.running = true
	return nil
}

func (x *IXXAT) Close() error {
	if !x.running {
		return nil
	}
	x.running = false
	// Stop closes every message channel copy, which unblocks Recv.
	x.device.Stop()
	return nil
}

func (x *IXXAT) Send(ctx context.Context, f can.Frame) error {
	if !x.running {
		return net.ErrClosed
	}
	return x.device.Send(candev.Message{
		ID:   f.ID,
		Rtr:  f.IsRemote,
		Len:  f.Length,
		Data: f.Data,
	})
}

func (x *IXXAT) Recv() (can.Frame, error) {
	if x.msgs == nil {
		return can.Frame{}, net.ErrClosed
	}
	msg, ok := <-x.msgs
	if !ok {
		return can.Frame{}, net.ErrClosed
	}
	return can.Frame{
		ID:       msg.ID,
		Length:   msg.Len,
		Data:     msg.Data,
		IsRemote: msg.Rtr,
	}, nil
}

// Open returns the platform endpoint for channel at the given bitrate.
// On Windows the channel name selects nothing; VCI3 binds the first adapter.
func Open(channel string, bitrate Bitrate) Endpoint {
	return NewIXXAT(bitrate)
}

// ListInterfaces names the channels accepted by Open on this platform.
func ListInterfaces() []string {
	return []string{"ixxat0"}
}
