package board

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Overrides carries per-installation deviations from the catalog: a custom
// bus-address base when a board is strapped to a non-default address, and
// renamed variables for installations with site-specific wiring.
//
// File shape:
//
//	[boards.PCU]
//	base = 0x310
//
//	[boards.PCU.names]
//	27 = "Top speed fwd (kn)"
type Overrides struct {
	boards map[Type]boardOverride
}

type boardOverride struct {
	base  uint32
	names map[int]string
}

// LoadOverrides reads and validates an override file. Unknown board types
// and out-of-range variable indexes are load-time errors, not silent skips.
func LoadOverrides(path string) (*Overrides, error) {
	var file struct {
		Boards map[string]struct {
			Base  uint32            `toml:"base"`
			Names map[string]string `toml:"names"`
		} `toml:"boards"`
	}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}

	o := &Overrides{boards: make(map[Type]boardOverride)}
	for key, raw := range file.Boards {
		t, err := ParseType(key)
		if err != nil {
			return nil, fmt.Errorf("overrides: %w", err)
		}
		ov := boardOverride{base: raw.Base}
		if len(raw.Names) > 0 {
			ov.names = make(map[int]string, len(raw.Names))
			for idxStr, name := range raw.Names {
				idx, err := strconv.Atoi(idxStr)
				if err != nil || idx < 0 || idx >= TableMax {
					return nil, fmt.Errorf("overrides: %v has no variable index %q", t, idxStr)
				}
				ov.names[idx] = name
			}
		}
		o.boards[t] = ov
	}
	return o, nil
}

// Descriptor returns the catalog descriptor for t with any overrides
// applied. A nil receiver returns the plain catalog entry.
func (o *Overrides) Descriptor(t Type) Descriptor {
	d := ForType(t)
	if o == nil {
		return d
	}
	ov, ok := o.boards[t]
	if !ok {
		return d
	}
	if ov.base != 0 {
		d = d.WithBase(ov.base)
	}
	for idx, name := range ov.names {
		d = d.withName(idx, name)
	}
	return d
}
