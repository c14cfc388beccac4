package bus

// messageOrDefault returns msg if present, otherwise fallback.
func messageOrDefault(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// TransportError is the base type for every failure the transport reports.
// Concrete kinds embed it so callers can branch with errors.As.
type TransportError struct {
	msg string
}

func NewTransportError(msg string) TransportError {
	return TransportError{msg: msg}
}

func (e TransportError) Error() string {
	return messageOrDefault(e.msg, "bus transport error")
}

// ConnectError reports that the underlying endpoint could not be opened:
// missing driver, wrong channel name, or the device is busy.
type ConnectError struct {
	TransportError
}

func (e ConnectError) Error() string {
	return messageOrDefault(e.msg, "cannot open bus endpoint")
}

// NotConnectedError reports a send or receive issued before Connect
// (or after Disconnect).
type NotConnectedError struct {
	TransportError
}

func (e NotConnectedError) Error() string {
	return messageOrDefault(e.msg, "bus is not connected")
}

// TransmitFullError reports that the endpoint's transmit queue rejected
// the frame.
type TransmitFullError struct {
	TransportError
}

func (e TransmitFullError) Error() string {
	return messageOrDefault(e.msg, "transmit queue full")
}

// EmptyError reports that no frame arrived within the receive timeout.
// It is the routine "no answer yet" condition, not a hard fault; polling
// callers see it on every quiet interval.
type EmptyError struct {
	TransportError
}

func (e EmptyError) Error() string {
	return messageOrDefault(e.msg, "no frame received before timeout")
}

// OverrunError reports that the receive queue overflowed and frames were
// dropped since the previous Receive call.
type OverrunError struct {
	TransportError
}

func (e OverrunError) Error() string {
	return messageOrDefault(e.msg, "receive queue overrun")
}

// LinkError reports a bus-level fault from the endpoint: the connection
// died underneath the pump rather than timing out.
type LinkError struct {
	TransportError
}

func (e LinkError) Error() string {
	return messageOrDefault(e.msg, "bus link failure")
}

// ResourceError reports a failure releasing the endpoint on Disconnect.
type ResourceError struct {
	TransportError
}

func (e ResourceError) Error() string {
	return messageOrDefault(e.msg, "cannot release bus endpoint")
}
