package bus

import "testing"

func TestParseBitrate(t *testing.T) {
	cases := []struct {
		in   string
		want Bitrate
	}{
		{"250k", Bitrate250K},
		{"500K", Bitrate500K},
		{"1M", Bitrate1M},
		{"1m", Bitrate1M},
		{"250000", Bitrate250K},
		{"  125k ", Bitrate125K},
		{"5k", Bitrate5K},
	}
	for _, c := range cases {
		got, err := ParseBitrate(c.in)
		if err != nil {
			t.Errorf("ParseBitrate(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseBitrate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseBitrate_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "300k", "250kk", "2M", "-125k"} {
		if got, err := ParseBitrate(in); err == nil {
			t.Errorf("ParseBitrate(%q) = %v, want error", in, got)
		}
	}
}

func TestBitrate_String(t *testing.T) {
	if s := Bitrate1M.String(); s != "1M" {
		t.Errorf("Expected 1M, got %s", s)
	}
	if s := Bitrate250K.String(); s != "250k" {
		t.Errorf("Expected 250k, got %s", s)
	}
	if s := Bitrate100K.String(); s != "100k" {
		t.Errorf("Expected 100k, got %s", s)
	}
}
