package bus

import (
	"context"

	"go.einride.tech/can"
)

// Endpoint is one attachment to a physical or virtual CAN bus. An
// implementation adapts a concrete driver; Bus owns the connect/disconnect
// state machine and the receive queue on top of it.
type Endpoint interface {
	// Open acquires the underlying device.
	Open(ctx context.Context) error

	// Close releases the device. It must be safe to call on an endpoint
	// that never opened, and it must unblock a pending Recv.
	Close() error

	// Send transmits one frame.
	Send(ctx context.Context, f can.Frame) error

	// Recv blocks until the next inbound frame arrives. It returns an
	// error once the endpoint is closed or the link faults.
	Recv() (can.Frame, error)
}
