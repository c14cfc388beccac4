package bus

import (
	"fmt"
	"time"

	"go.einride.tech/can"
)

// NewFrame builds a standard 11-bit data frame from an identifier and a
// payload of at most 8 bytes. A longer payload cannot exist on the wire,
// so it is a programmer error and panics.
func NewFrame(id uint32, payload []byte) can.Frame {
	if len(payload) > can.MaxDataLength {
		panic(fmt.Sprintf("bus: frame payload of %d bytes exceeds %d", len(payload), can.MaxDataLength))
	}
	f := can.Frame{ID: id, Length: uint8(len(payload))}
	copy(f.Data[:], payload)
	return f
}

// NewExtendedFrame builds a 29-bit data frame. Same payload rule as NewFrame.
func NewExtendedFrame(id uint32, payload []byte) can.Frame {
	f := NewFrame(id, payload)
	f.IsExtended = true
	return f
}

// NewRemoteFrame builds a remote-request frame asking for length bytes.
func NewRemoteFrame(id uint32, length uint8) can.Frame {
	if length > can.MaxDataLength {
		panic(fmt.Sprintf("bus: remote request for %d bytes exceeds %d", length, can.MaxDataLength))
	}
	return can.Frame{ID: id, Length: length, IsRemote: true}
}

// Timestamp is the driver-style receive timestamp: milliseconds since the
// endpoint was opened, an overflow counter for the 32-bit millisecond field,
// and the sub-millisecond remainder in microseconds.
type Timestamp struct {
	Millis         uint32
	MillisOverflow uint16
	Micros         uint16
}

func timestampFrom(d time.Duration) Timestamp {
	us := d.Microseconds()
	ms := us / 1000
	return Timestamp{
		Millis:         uint32(ms),
		MillisOverflow: uint16(ms >> 32),
		Micros:         uint16(us % 1000),
	}
}

func timestampSince(start time.Time) Timestamp {
	return timestampFrom(time.Since(start))
}

// Duration reconstructs the offset from endpoint open that the timestamp
// encodes.
func (t Timestamp) Duration() time.Duration {
	ms := int64(t.MillisOverflow)<<32 | int64(t.Millis)
	return time.Duration(ms)*time.Millisecond + time.Duration(t.Micros)*time.Microsecond
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%03dms", int64(t.MillisOverflow)<<32|int64(t.Millis), t.Micros)
}

// Received is one inbound frame together with the time it left the receive
// queue. The timestamp is only meaningful to the caller that asked for the
// frame; it is not kept anywhere after that.
type Received struct {
	Frame     can.Frame
	Timestamp Timestamp
}

// Filter narrows which inbound identifiers the pump keeps. It is advisory:
// several ECUs share the bus, so callers must still check the identifier of
// everything they receive.
type Filter struct {
	Low      uint32
	High     uint32
	Extended bool
}

func (f Filter) matches(frame can.Frame) bool {
	if frame.IsExtended != f.Extended {
		return false
	}
	return frame.ID >= f.Low && frame.ID <= f.High
}
