package bootloader

import "fmt"

// Phase names the upload step an error happened in.
type Phase string

const (
	PhaseReset   Phase = "reset"
	PhaseStart   Phase = "start-load"
	PhaseAddress Phase = "address"
	PhaseData    Phase = "data"
	PhaseVerify  Phase = "verify"
)

// UploadError reports an aborted upload. Cursor is the image's word cursor
// after any rewind, the point a restart could resume from; the upload
// itself never retries in place.
type UploadError struct {
	Phase    Phase
	DeviceID uint32
	Cursor   int
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload to 0x%03X aborted in %s phase (cursor %d): %v",
		e.DeviceID, e.Phase, e.Cursor, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ParseError reports a firmware image the strict parser rejects. Line is
// 1-based when known, 0 otherwise.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("image line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("image: %s", e.Msg)
}
