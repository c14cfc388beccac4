//go:build !linux && !windows

package bus

// Open returns a loopback endpoint on platforms without a CAN driver so that
// tooling can still run in dry-run mode.
func Open(channel string, bitrate Bitrate) Endpoint {
	return NewLoopback()
}

// ListInterfaces names the channels accepted by Open on this platform.
func ListInterfaces() []string {
	return []string{"loop0"}
}
