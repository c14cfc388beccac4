package bus

import (
	"fmt"
	"strconv"
	"strings"
)

// Bitrate is a nominal CAN bit rate in bits per second.
type Bitrate uint32

// The rates the propulsion ECUs are deployed with. 250k is the fleet default.
const (
	Bitrate1M   Bitrate = 1000000
	Bitrate500K Bitrate = 500000
	Bitrate250K Bitrate = 250000
	Bitrate125K Bitrate = 125000
	Bitrate100K Bitrate = 100000
	Bitrate50K  Bitrate = 50000
	Bitrate20K  Bitrate = 20000
	Bitrate10K  Bitrate = 10000
	Bitrate5K   Bitrate = 5000
)

func (b Bitrate) String() string {
	if b >= Bitrate1M && b%Bitrate1M == 0 {
		return fmt.Sprintf("%dM", b/Bitrate1M)
	}
	if b >= 1000 && b%1000 == 0 {
		return fmt.Sprintf("%dk", b/1000)
	}
	return fmt.Sprintf("%d", uint32(b))
}

// ParseBitrate accepts "250k", "1M", or a plain bit/s figure like "250000".
func ParseBitrate(s string) (Bitrate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty bit rate")
	}
	mult := Bitrate(1)
	switch {
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		mult = Bitrate1M
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		mult = 1000
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid bit rate %q", s)
	}
	rate := Bitrate(n) * mult
	switch rate {
	case Bitrate1M, Bitrate500K, Bitrate250K, Bitrate125K, Bitrate100K,
		Bitrate50K, Bitrate20K, Bitrate10K, Bitrate5K:
		return rate, nil
	}
	return 0, fmt.Errorf("unsupported bit rate %s", rate)
}
