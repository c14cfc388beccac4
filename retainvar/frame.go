package retainvar

import (
	"encoding/binary"
	"fmt"

	"go.einride.tech/can"

	"github.com/seadrive/retaincan/bus"
)

// Wire contract. Request and response identifiers are computed from the
// board's address base shifted by the board index; the opcode byte carries
// the transfer width in its low bits.
const (
	requestIDOffset  = 0x05 // base + 0x05 + (boardIndex << 4)
	responseIDOffset = 0x0A // base + 0x0A + (boardIndex << 4)

	opcodeRead  = 0x10 // byte0 = opcode + length
	opcodeWrite = 0x20

	widthMask  = 0x07 // response byte0 low bits declare the width
	widthInt8  = 0x01
	widthInt16 = 0x02
	widthInt32 = 0x04
)

// RequestID computes the identifier a request to (base, boardIndex) is
// sent on.
func RequestID(base uint32, boardIndex int) uint32 {
	return base + requestIDOffset + uint32(boardIndex)<<4
}

// ResponseID computes the identifier the board answers on.
func ResponseID(base uint32, boardIndex int) uint32 {
	return base + responseIDOffset + uint32(boardIndex)<<4
}

// readRequest builds the 8-byte read frame: opcode+length, then the 24-bit
// little-endian memory offset, then zero padding.
func readRequest(id, addr uint32, length uint8) can.Frame {
	return bus.NewFrame(id, []byte{
		opcodeRead + length,
		byte(addr),
		byte(addr >> 8),
		byte(addr >> 16),
		0x00, 0x00, 0x00, 0x00,
	})
}

// writeRequest builds the 8-byte write frame: like readRequest, but bytes
// 4..7 carry the little-endian value to store.
func writeRequest(id, addr uint32, length uint8, value uint32) can.Frame {
	payload := []byte{
		opcodeWrite + length,
		byte(addr),
		byte(addr >> 8),
		byte(addr >> 16),
		0x00, 0x00, 0x00, 0x00,
	}
	binary.LittleEndian.PutUint32(payload[4:], value)
	return bus.NewFrame(id, payload)
}

// Value is one decoded variable: the raw 32-bit payload, the number after
// applying the width tag's signedness, and the tag itself.
type Value struct {
	Raw uint32
	Int int64
	Tag byte
}

func (v Value) String() string {
	return fmt.Sprintf("%d", v.Int)
}

// decodeValue interprets response bytes 4..7 as a little-endian 32-bit
// quantity and sign-extends it according to the width tag in byte 0. Tags
// other than the three signed widths read as unsigned 32-bit.
func decodeValue(data [8]byte) Value {
	raw := binary.LittleEndian.Uint32(data[4:])
	tag := data[0] & widthMask
	value := int64(raw)
	switch tag {
	case widthInt8:
		if value > 127 {
			value -= 256
		}
	case widthInt16:
		if value > 32767 {
			value -= 65536
		}
	case widthInt32:
		if value > 2147483647 {
			value -= 4294967296
		}
	}
	return Value{Raw: raw, Int: value, Tag: tag}
}
