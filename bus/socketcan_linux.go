//go:build linux

package bus

import (
	"context"
	"fmt"
	"net"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// SocketCAN drives a Linux SocketCAN interface (can0, vcan0, slcan0, ...).
// The interface must already be up at the requested bitrate; bring it up with
// `ip link set can0 up type can bitrate 250000` or equivalent.
type SocketCAN struct {
	channel string
	bitrate Bitrate

	conn net.Conn
	tx   *socketcan.Transmitter
	rx   *socketcan.Receiver
}

// NewSocketCAN returns an endpoint for the named interface. The bitrate is
// informational only; SocketCAN configures bit timing at the link layer.
func NewSocketCAN(channel string, bitrate Bitrate) *SocketCAN {
	return &SocketCAN{channel: channel, bitrate: bitrate}
}

func (s *SocketCAN) Open(ctx context.Context) error {
	conn, err := socketcan.DialContext(ctx, "can", s.channel)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.channel, err)
	}
	s.conn = conn
	s.tx = socketcan.NewTransmitter(conn)
	s.rx = socketcan.NewReceiver(conn)
	return nil
}

func (s *SocketCAN) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *SocketCAN) Send(ctx context.Context, f can.Frame) error {
	if s.tx == nil {
		return net.ErrClosed
	}
	return s.tx.TransmitFrame(ctx, f)
}

func (s *SocketCAN) Recv() (can.Frame, error) {
	if s.rx == nil {
		return can.Frame{}, net.ErrClosed
	}
	for s.rx.Receive() {
		if s.rx.HasErrorFrame() {
			continue
		}
		return s.rx.Frame(), nil
	}
	if err := s.rx.Err(); err != nil {
		return can.Frame{}, err
	}
	return can.Frame{}, net.ErrClosed
}

// Open returns the platform endpoint for channel at the given bitrate.
func Open(channel string, bitrate Bitrate) Endpoint {
	return NewSocketCAN(channel, bitrate)
}

// ListInterfaces names the CAN interfaces an operator is likely to have.
// SocketCAN has no enumeration API worth shelling out for, so this is the
// conventional set.
func ListInterfaces() []string {
	return []string{"can0", "can1", "vcan0", "vcan1", "slcan0"}
}
