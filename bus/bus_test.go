package bus

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.einride.tech/can"
)

// TestBus_NotConnected verifies that traffic before Connect fails cleanly.
func TestBus_NotConnected(t *testing.T) {
	b := New(NewLoopback())
	ctx := context.Background()

	err := b.Send(ctx, NewFrame(0x305, []byte{0x14}))
	var notConn NotConnectedError
	if !errors.As(err, &notConn) {
		t.Errorf("Expected NotConnectedError from Send, got: %v", err)
	}

	_, err = b.Receive(ctx, 10*time.Millisecond)
	if !errors.As(err, &notConn) {
		t.Errorf("Expected NotConnectedError from Receive, got: %v", err)
	}
}

// TestBus_ConnectDisconnect verifies the connection state machine is
// idempotent in both directions.
func TestBus_ConnectDisconnect(t *testing.T) {
	b := New(NewLoopback())
	ctx := context.Background()

	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !b.Connected() {
		t.Fatal("Expected Connected() == true after Connect")
	}
	// Second Connect is a no-op.
	if err := b.Connect(ctx); err != nil {
		t.Errorf("Repeated Connect should be a no-op, got: %v", err)
	}

	if err := b.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if b.Connected() {
		t.Fatal("Expected Connected() == false after Disconnect")
	}
	// Second Disconnect is a no-op.
	if err := b.Disconnect(); err != nil {
		t.Errorf("Repeated Disconnect should be a no-op, got: %v", err)
	}

	// Traffic after Disconnect fails like traffic before Connect.
	_, err := b.Receive(ctx, 10*time.Millisecond)
	var notConn NotConnectedError
	if !errors.As(err, &notConn) {
		t.Errorf("Expected NotConnectedError after Disconnect, got: %v", err)
	}
}

func TestBus_ConnectError(t *testing.T) {
	ep := NewLoopback()
	ep.OpenError = errors.New("device busy")
	b := New(ep)

	err := b.Connect(context.Background())
	var connErr ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("Expected ConnectError, got: %v", err)
	}
	if b.Connected() {
		t.Error("Connect failure must leave the bus disconnected")
	}
}

// TestBus_SendReceive runs one scripted request/response exchange.
func TestBus_SendReceive(t *testing.T) {
	ep := NewLoopback()
	// Script: reading variable index 0 on PCU board 0 gets one response.
	ep.Script(func(n int, f can.Frame) ([]can.Frame, error) {
		if f.ID != 0x305 {
			t.Errorf("Unexpected request ID 0x%03X", f.ID)
		}
		return []can.Frame{NewFrame(0x30A, []byte{0x02, 0x00, 0x00, 0x00, 0x34, 0x12, 0x00, 0x00})}, nil
	})

	b := New(ep)
	ctx := context.Background()
	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer b.Disconnect()

	req := NewFrame(0x305, []byte{0x12, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	if err := b.Send(ctx, req); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	r, err := b.Receive(ctx, 1*time.Second)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if r.Frame.ID != 0x30A {
		t.Errorf("Expected response ID 0x30A, got 0x%03X", r.Frame.ID)
	}
	// Value bytes 4..7 carry 0x1234 little-endian.
	if r.Frame.Data[4] != 0x34 || r.Frame.Data[5] != 0x12 {
		t.Errorf("Response payload mismatch: % X", r.Frame.Data)
	}

	sent := ep.Sent()
	if len(sent) != 1 || sent[0].ID != 0x305 {
		t.Errorf("Expected exactly the request on the wire, got %v", sent)
	}
}

func TestBus_SendError(t *testing.T) {
	ep := NewLoopback()
	ep.Script(func(n int, f can.Frame) ([]can.Frame, error) {
		return nil, errors.New("controller queue full")
	})

	b := New(ep)
	ctx := context.Background()
	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer b.Disconnect()

	err := b.Send(ctx, NewFrame(0x305, []byte{0x14}))
	var full TransmitFullError
	if !errors.As(err, &full) {
		t.Fatalf("Expected TransmitFullError, got: %v", err)
	}
	if !strings.Contains(err.Error(), "0x305") {
		t.Errorf("Error should name the frame ID: %v", err)
	}
	if n := len(ep.Sent()); n != 0 {
		t.Errorf("Failed send must not be recorded, wire log has %d frames", n)
	}
}

// TestBus_ReceiveTimeout verifies the quiet-bus outcome is EmptyError,
// not a hard fault.
func TestBus_ReceiveTimeout(t *testing.T) {
	b := New(NewLoopback())
	ctx := context.Background()
	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer b.Disconnect()

	start := time.Now()
	_, err := b.Receive(ctx, 50*time.Millisecond)
	var empty EmptyError
	if !errors.As(err, &empty) {
		t.Fatalf("Expected EmptyError, got: %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("Receive returned before the timeout elapsed")
	}
}

func TestBus_ReceiveContextCancel(t *testing.T) {
	b := New(NewLoopback())
	if err := b.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer b.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := b.Receive(ctx, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got: %v", err)
	}
}

// TestBus_Overrun fills a 2-deep queue with 5 frames and expects the next
// Receive to report the 3 dropped ones before handing out the survivors.
func TestBus_Overrun(t *testing.T) {
	ep := NewLoopback()
	ep.Script(func(n int, f can.Frame) ([]can.Frame, error) {
		burst := make([]can.Frame, 5)
		for i := range burst {
			burst[i] = NewFrame(0x30A, []byte{byte(i)})
		}
		return burst, nil
	})

	b := New(ep, WithQueueSize(2))
	ctx := context.Background()
	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer b.Disconnect()

	if err := b.Send(ctx, NewFrame(0x305, nil)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	// Let the pump attempt all 5 frames against the 2-deep queue.
	time.Sleep(100 * time.Millisecond)

	_, err := b.Receive(ctx, 10*time.Millisecond)
	var overrun OverrunError
	if !errors.As(err, &overrun) {
		t.Fatalf("Expected OverrunError first, got: %v", err)
	}
	if !strings.Contains(err.Error(), "3") {
		t.Errorf("Expected 3 dropped frames reported, got: %v", err)
	}

	// The two survivors are still deliverable, then the queue is quiet.
	for i := 0; i < 2; i++ {
		r, err := b.Receive(ctx, 100*time.Millisecond)
		if err != nil {
			t.Fatalf("Receive %d after overrun failed: %v", i, err)
		}
		if r.Frame.Data[0] != byte(i) {
			t.Errorf("Expected frame %d, got payload %X", i, r.Frame.Data[0])
		}
	}
	var empty EmptyError
	if _, err := b.Receive(ctx, 20*time.Millisecond); !errors.As(err, &empty) {
		t.Errorf("Expected EmptyError once drained, got: %v", err)
	}
}

// TestBus_Filter verifies the advisory identifier filter.
func TestBus_Filter(t *testing.T) {
	ep := NewLoopback()
	b := New(ep)
	ctx := context.Background()
	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer b.Disconnect()

	b.SetFilter(0x30A, 0x30A, false)
	ep.Inject(NewFrame(0x104, []byte{0xFF})) // chatter outside the window
	ep.Inject(NewFrame(0x30A, []byte{0x01}))

	r, err := b.Receive(ctx, 1*time.Second)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if r.Frame.ID != 0x30A {
		t.Fatalf("Filter leaked frame 0x%03X", r.Frame.ID)
	}

	b.ClearFilter()
	ep.Inject(NewFrame(0x104, []byte{0xFF}))
	r, err = b.Receive(ctx, 1*time.Second)
	if err != nil {
		t.Fatalf("Receive after ClearFilter failed: %v", err)
	}
	if r.Frame.ID != 0x104 {
		t.Errorf("Expected unfiltered frame 0x104, got 0x%03X", r.Frame.ID)
	}
}

// TestBus_LinkFault kills the endpoint underneath a connected bus and
// expects LinkError, not NotConnectedError.
func TestBus_LinkFault(t *testing.T) {
	ep := NewLoopback()
	b := New(ep)
	ctx := context.Background()
	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// Close the device directly, bypassing Disconnect.
	ep.Close()

	var linkErr LinkError
	deadline := time.Now().Add(1 * time.Second)
	for {
		_, err := b.Receive(ctx, 50*time.Millisecond)
		if errors.As(err, &linkErr) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected LinkError after endpoint death, got: %v", err)
		}
	}
}
