package retainvar

import "fmt"

// messageOrDefault returns msg if present, otherwise fallback.
func messageOrDefault(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// ProtocolError is the base type for retained-variable protocol failures.
// Concrete kinds embed it so callers can branch with errors.As and decide
// whether to retry; the engine itself never retries.
type ProtocolError struct {
	msg string
}

func NewProtocolError(msg string) ProtocolError {
	return ProtocolError{msg: msg}
}

func (e ProtocolError) Error() string {
	return messageOrDefault(e.msg, "retained-variable protocol error")
}

// InvalidIndexError reports a variable index outside the board's table.
type InvalidIndexError struct {
	ProtocolError
	Index int
}

func (e InvalidIndexError) Error() string {
	return messageOrDefault(e.msg, fmt.Sprintf("no variable at index %d", e.Index))
}

// SendFailedError reports that the request frame never left the node.
type SendFailedError struct {
	ProtocolError
}

func (e SendFailedError) Error() string {
	return messageOrDefault(e.msg, "request send failed")
}

// NoResponseError reports that the board did not answer within the
// response window.
type NoResponseError struct {
	ProtocolError
}

func (e NoResponseError) Error() string {
	return messageOrDefault(e.msg, "no response from board")
}

// WrongResponderError reports a frame from an unexpected identifier inside
// the response window. Unrelated traffic shares the bus, so this is the
// collision guard, treated like NoResponse by callers.
type WrongResponderError struct {
	ProtocolError
	Got  uint32
	Want uint32
}

func (e WrongResponderError) Error() string {
	return messageOrDefault(e.msg,
		fmt.Sprintf("response from 0x%03X, expected 0x%03X", e.Got, e.Want))
}

// TagMismatchError reports a snapshot whose integrity tag does not verify.
type TagMismatchError struct {
	ProtocolError
}

func (e TagMismatchError) Error() string {
	return messageOrDefault(e.msg, "snapshot integrity tag mismatch")
}
