// Package board is the per-ECU-class memory layout catalog: which variable
// index lives at which byte offset in retained memory, what it is called,
// and which bus-address base the class answers on. The data is fixed per
// firmware generation; per-installation deviations come in through TOML
// overrides.
package board

import (
	"fmt"
	"strings"
)

// TableMax is the number of variable slots every address table carries.
const TableMax = 51

// Type identifies one ECU class, ordered by bus-address base.
type Type int

const (
	PCU     Type = iota // power control
	CCU                 // central control
	TCU                 // transmission control
	GATE                // gateway
	WLU                 // water level
	PDU                 // power distribution
	OBDDCDC             // onboard DC-DC converter
	ZCU                 // zone control
	VCU                 // vehicle control
	SCU                 // safety control
	FCU                 // fuel cell
	BMS                 // battery management
)

var typeNames = [...]string{
	PCU:     "PCU",
	CCU:     "CCU",
	TCU:     "TCU",
	GATE:    "GATE",
	WLU:     "WLU",
	PDU:     "PDU",
	OBDDCDC: "OBD_DC_DC",
	ZCU:     "ZCU",
	VCU:     "VCU",
	SCU:     "SCU",
	FCU:     "FCU",
	BMS:     "BMS",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType resolves a board-type string like "PCU" or "obd_dc_dc".
// Unknown strings are an error; there is no fallback class.
func ParseType(s string) (Type, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == want {
			return Type(t), nil
		}
	}
	return 0, fmt.Errorf("unknown board type %q", s)
}

// Types lists every ECU class in bus-address order.
func Types() []Type {
	out := make([]Type, len(typeNames))
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

// Descriptor is the memory layout of one ECU class: an ascending table of
// byte offsets, the variable name at each index, and the class's default
// bus-address base. Values are cheap to copy and safe to share; the
// underlying tables are never mutated.
type Descriptor struct {
	typ   Type
	base  uint32
	addrs []uint32
	names []string
}

// ForType returns the catalog descriptor for t. Passing a value outside the
// enumeration is a programmer error and panics.
func ForType(t Type) Descriptor {
	d, ok := catalog[t]
	if !ok {
		panic(fmt.Sprintf("board: no descriptor for %v", t))
	}
	return d
}

// Type returns the ECU class this descriptor describes.
func (d Descriptor) Type() Type { return d.typ }

// Base returns the bus-address base, honoring any override applied.
func (d Descriptor) Base() uint32 { return d.base }

// WithBase returns a copy of d answering on a different bus-address base.
func (d Descriptor) WithBase(base uint32) Descriptor {
	d.base = base
	return d
}

// Variables returns the number of variable slots in the address table.
func (d Descriptor) Variables() int { return len(d.addrs) }

// Address returns the byte offset of variable index i, or 0 when i is out
// of range. 0 is also a valid offset. Callers wanting to distinguish must
// range-check against Variables first.
func (d Descriptor) Address(i int) uint32 {
	if i < 0 || i >= len(d.addrs) {
		return 0
	}
	return d.addrs[i]
}

// Name returns the variable name at index i, or a synthesized placeholder
// when the table carries no name there.
func (d Descriptor) Name(i int) string {
	if i < 0 || i >= len(d.names) {
		return fmt.Sprintf("Unknown_Var_%d", i)
	}
	return d.names[i]
}

// Length returns the transfer width in bytes for variable index i: the gap
// to the next table entry, capped at 4. The last entry and out-of-range
// indexes default to 4.
func (d Descriptor) Length(i int) uint8 {
	if i < 0 || i+1 >= len(d.addrs) {
		return 4
	}
	if gap := d.addrs[i+1] - d.addrs[i]; gap < 4 {
		return uint8(gap)
	}
	return 4
}

// withName returns a copy of d with the name at index i replaced. The name
// table is copied on first replacement so the catalog stays untouched.
func (d Descriptor) withName(i int, name string) Descriptor {
	names := make([]string, len(d.names))
	copy(names, d.names)
	for len(names) <= i {
		names = append(names, fmt.Sprintf("Unknown_Var_%d", len(names)))
	}
	names[i] = name
	d.names = names
	return d
}
