package retainvar

import (
	"context"
	"crypto/aes"
	"crypto/hmac"
	"fmt"
	"time"

	"github.com/chmike/cmac-go"
	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a board's full retained-variable state at one moment, used
// to back up a board before reprogramming and to restore it afterwards.
type Snapshot struct {
	Board      string        `cbor:"board"`
	Base       uint32        `cbor:"base"`
	BoardIndex int           `cbor:"board_index"`
	TakenAt    time.Time     `cbor:"taken_at"`
	Values     map[int]int64 `cbor:"values"`
}

// Take reads every variable and packs the results into a Snapshot. A backup
// with holes restores holes, so any failed read fails the whole snapshot.
func Take(ctx context.Context, s *Session) (*Snapshot, error) {
	readings, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Board:      s.desc.Type().String(),
		Base:       s.base,
		BoardIndex: s.boardIndex,
		TakenAt:    time.Now().UTC(),
		Values:     make(map[int]int64, len(readings)),
	}
	for _, r := range readings {
		if r.Err != nil {
			return nil, fmt.Errorf("snapshot: variable %d %q: %w", r.Index, r.Name, r.Err)
		}
		snap.Values[r.Index] = r.Value.Int
	}
	return snap, nil
}

// Restore writes every value in the snapshot back to the board in index
// order. The snapshot must match the session's board class; the base may
// differ (restoring onto a re-addressed board is legitimate).
func Restore(ctx context.Context, s *Session, snap *Snapshot) error {
	if snap.Board != s.desc.Type().String() {
		return fmt.Errorf("snapshot of %s cannot restore a %v board", snap.Board, s.desc.Type())
	}
	for i := 0; i < s.desc.Variables(); i++ {
		v, ok := snap.Values[i]
		if !ok {
			continue
		}
		if err := s.Write(ctx, i, v); err != nil {
			return fmt.Errorf("restore variable %d: %w", i, err)
		}
	}
	return nil
}

// envelope is the on-disk framing: the CBOR-encoded snapshot plus an
// optional AES-CMAC tag over those exact bytes.
type envelope struct {
	Body cbor.RawMessage `cbor:"body"`
	Tag  []byte          `cbor:"tag,omitempty"`
}

// Codec serializes snapshots. With a key it stamps an AES-CMAC tag on
// encode and verifies it on decode, so a corrupted or edited backup is
// rejected before any value reaches a board. Without a key, snapshots are
// plain CBOR and decode skips verification.
type Codec struct {
	key []byte
}

// NewCodec returns a codec; key must be empty or a valid AES key
// (16, 24, or 32 bytes).
func NewCodec(key []byte) (*Codec, error) {
	switch len(key) {
	case 0, 16, 24, 32:
		return &Codec{key: key}, nil
	}
	return nil, fmt.Errorf("snapshot key must be 16, 24, or 32 bytes, got %d", len(key))
}

func (c *Codec) tag(body []byte) ([]byte, error) {
	h, err := cmac.New(aes.NewCipher, c.key)
	if err != nil {
		return nil, fmt.Errorf("snapshot tag: %w", err)
	}
	h.Write(body)
	return h.Sum(nil), nil
}

// Encode marshals a snapshot, tagging it when the codec has a key.
func (c *Codec) Encode(snap *Snapshot) ([]byte, error) {
	body, err := cbor.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	env := envelope{Body: body}
	if len(c.key) > 0 {
		if env.Tag, err = c.tag(body); err != nil {
			return nil, err
		}
	}
	return cbor.Marshal(env)
}

// Decode unmarshals a snapshot, verifying the tag when the codec has a key.
// A keyed codec refuses untagged input.
func (c *Codec) Decode(data []byte) (*Snapshot, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(c.key) > 0 {
		want, err := c.tag(env.Body)
		if err != nil {
			return nil, err
		}
		if !hmac.Equal(env.Tag, want) {
			return nil, TagMismatchError{}
		}
	}
	var snap Snapshot
	if err := cbor.Unmarshal(env.Body, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot body: %w", err)
	}
	return &snap, nil
}
