package board

import (
	"os"
	"path/filepath"
	"testing"
)

func writeOverrides(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boards.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverrides(t *testing.T) {
	path := writeOverrides(t, `
[boards.PCU]
base = 0x310

[boards.PCU.names]
27 = "Top speed fwd (kn)"

[boards.TCU.names]
50 = "Spare slot"
`)
	o, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}

	pcu := o.Descriptor(PCU)
	if pcu.Base() != 0x310 {
		t.Errorf("PCU base = 0x%03X, want override 0x310", pcu.Base())
	}
	if got := pcu.Name(27); got != "Top speed fwd (kn)" {
		t.Errorf("PCU Name(27) = %q, want override", got)
	}
	if got := pcu.Name(0); got != "Flash CRC16" {
		t.Errorf("Override leaked into Name(0): %q", got)
	}
	if pcu.Address(27) != ForType(PCU).Address(27) {
		t.Error("Override changed the address table")
	}

	// TCU keeps its default base; the name override fills the slot past
	// the class's own 50 names.
	tcu := o.Descriptor(TCU)
	if tcu.Base() != 0x400 {
		t.Errorf("TCU base = 0x%03X, want default 0x400", tcu.Base())
	}
	if got := tcu.Name(50); got != "Spare slot" {
		t.Errorf("TCU Name(50) = %q, want override", got)
	}

	// The catalog itself stays pristine.
	if got := ForType(PCU).Name(27); got != "Top speed FW" {
		t.Errorf("Catalog mutated: Name(27) = %q", got)
	}
}

func TestLoadOverrides_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown board", "[boards.XXX]\nbase = 0x310\n"},
		{"index too high", "[boards.PCU.names]\n51 = \"nope\"\n"},
		{"index not a number", "[boards.PCU.names]\nabc = \"nope\"\n"},
	}
	for _, c := range cases {
		path := writeOverrides(t, c.body)
		if _, err := LoadOverrides(path); err == nil {
			t.Errorf("%s: expected load error", c.name)
		}
	}
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	if _, err := LoadOverrides(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestOverrides_NilReceiver(t *testing.T) {
	var o *Overrides
	d := o.Descriptor(VCU)
	if d.Base() != 0x700 {
		t.Errorf("Nil overrides changed VCU base to 0x%03X", d.Base())
	}
}
