package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/dispatch"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/preimage"
)

const (
	// DefaultMaxInlineLen is the largest encoded call kept inline.
	DefaultMaxInlineLen = 128
)

// Limits bound the encoded size of scheduled calls.
type Limits struct {
	MaxInlineLen   uint32 `mapstructure:"max_inline_len"`
	MaxPreimageLen uint32 `mapstructure:"max_preimage_len"`
}

// DefaultLimits returns the limits used by the daemon.
func DefaultLimits() Limits {
	return Limits{
		MaxInlineLen:   DefaultMaxInlineLen,
		MaxPreimageLen: preimage.DefaultMaxLen,
	}
}

// Bounded is a scheduled call, either inline or referenced by hash and
// length in the preimage store.
type Bounded struct {
	inline []byte
	hash   preimage.Hash
	length uint32
	lookup bool
}

// Inline wraps an encoded call kept in the agenda itself.
func Inline(encoded []byte) Bounded {
	return Bounded{inline: append([]byte(nil), encoded...)}
}

// Lookup references a call stored in the preimage store.
func Lookup(h preimage.Hash, length uint32) Bounded {
	return Bounded{hash: h, length: length, lookup: true}
}

// Bound encodes call and keeps it inline when it fits, otherwise notes it
// with the preimage store.
func Bound(ctx context.Context, call dispatch.Call, p preimage.Provider, lim Limits) (Bounded, error) {
	encoded, err := call.Encode()
	if err != nil {
		return Bounded{}, fmt.Errorf("%w: %v", ErrScheduledCallCorrupted, err)
	}
	if uint64(len(encoded)) <= uint64(lim.MaxInlineLen) {
		return Inline(encoded), nil
	}
	if lim.MaxPreimageLen != 0 && uint64(len(encoded)) > uint64(lim.MaxPreimageLen) {
		return Bounded{}, fmt.Errorf("%w: %d bytes", ErrTooBigScheduledCall, len(encoded))
	}
	h, err := p.Note(ctx, encoded)
	if errors.Is(err, preimage.ErrTooBig) {
		return Bounded{}, fmt.Errorf("%w: %v", ErrTooBigScheduledCall, err)
	}
	if err != nil {
		return Bounded{}, err
	}
	return Lookup(h, uint32(len(encoded))), nil
}

// IsInline reports whether the call is stored inline.
func (b Bounded) IsInline() bool { return !b.lookup }

// Hash returns the preimage hash of a lookup call.
func (b Bounded) Hash() (preimage.Hash, bool) { return b.hash, b.lookup }

// Encoded returns the inline bytes, or nil for a lookup.
func (b Bounded) Encoded() []byte { return b.inline }

// LookupLen returns the payload length to fetch, or nil when inline.
func (b Bounded) LookupLen() *uint32 {
	if !b.lookup {
		return nil
	}
	n := b.length
	return &n
}

func (b Bounded) String() string {
	if b.lookup {
		return fmt.Sprintf("lookup(%s, %d)", b.hash, b.length)
	}
	return fmt.Sprintf("inline(%d)", len(b.inline))
}

func (b Bounded) clone() Bounded {
	cp := b
	if b.inline != nil {
		cp.inline = append([]byte(nil), b.inline...)
	}
	return cp
}

// Peek decodes the call without releasing the store reference. For a
// lookup call the fetched length is returned as well.
func (b Bounded) Peek(ctx context.Context, p preimage.Provider) (dispatch.Call, *uint32, error) {
	encoded := b.inline
	if b.lookup {
		data, err := p.Fetch(ctx, b.hash, b.length)
		if errors.Is(err, preimage.ErrNotFound) || errors.Is(err, preimage.ErrLengthMismatch) {
			return dispatch.Call{}, nil, fmt.Errorf("%w: %s", ErrPreimageNotFound, b.hash)
		}
		if errors.Is(err, preimage.ErrDataCorrupt) {
			return dispatch.Call{}, nil, fmt.Errorf("%w: %v", ErrScheduledCallCorrupted, err)
		}
		if err != nil {
			return dispatch.Call{}, nil, err
		}
		encoded = data
	}
	call, err := dispatch.DecodeCall(encoded)
	if err != nil {
		return dispatch.Call{}, nil, fmt.Errorf("%w: %v", ErrScheduledCallCorrupted, err)
	}
	return call, b.LookupLen(), nil
}

// Realize peeks the call and then releases the store reference.
func (b Bounded) Realize(ctx context.Context, p preimage.Provider) (dispatch.Call, *uint32, error) {
	call, n, err := b.Peek(ctx, p)
	if err != nil {
		return call, n, err
	}
	if err := b.Drop(ctx, p); err != nil {
		return call, n, err
	}
	return call, n, nil
}

// Drop releases the store reference. It is a no-op for inline calls.
func (b Bounded) Drop(ctx context.Context, p preimage.Provider) error {
	if !b.lookup {
		return nil
	}
	err := p.Drop(ctx, b.hash)
	if errors.Is(err, preimage.ErrNotFound) {
		return nil
	}
	return err
}
