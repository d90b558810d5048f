package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/preimage"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database/memory"
)

func newPreimages(t *testing.T) *preimage.Store {
	t.Helper()
	p, err := preimage.NewStore(memory.NewDB(), preimage.DefaultConfig(), log.Nop())
	require.NoError(t, err)
	return p
}

func TestBound_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newPreimages(t)

	tests := []struct {
		name   string
		size   int
		inline bool
	}{
		{name: "empty payload", size: 0, inline: true},
		{name: "small payload", size: 32, inline: true},
		{name: "indirect payload", size: 4096, inline: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			call := remark(t, tc.size)
			b, err := Bound(ctx, call, p, DefaultLimits())
			require.NoError(t, err)
			assert.Equal(t, tc.inline, b.IsInline())

			got, n, err := b.Peek(ctx, p)
			require.NoError(t, err)
			assert.Equal(t, call, got)
			if tc.inline {
				assert.Nil(t, n)
			} else {
				require.NotNil(t, n)
				encoded, err := call.Encode()
				require.NoError(t, err)
				assert.Equal(t, uint32(len(encoded)), *n)
			}
		})
	}
}

func TestBound_Limits(t *testing.T) {
	ctx := context.Background()
	p := newPreimages(t)

	_, err := Bound(ctx, remark(t, 300), p, Limits{MaxInlineLen: 16, MaxPreimageLen: 64})
	assert.ErrorIs(t, err, ErrTooBigScheduledCall)

	b, err := Bound(ctx, remark(t, 300), p, Limits{MaxInlineLen: 1024})
	require.NoError(t, err)
	assert.True(t, b.IsInline())
}

func TestBounded_RealizeReleases(t *testing.T) {
	ctx := context.Background()
	p := newPreimages(t)
	call := remark(t, 1000)

	b, err := Bound(ctx, call, p, DefaultLimits())
	require.NoError(t, err)
	h, ok := b.Hash()
	require.True(t, ok)

	got, _, err := b.Realize(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, call, got)

	have, err := p.Have(ctx, h)
	require.NoError(t, err)
	assert.False(t, have)

	_, _, err = b.Peek(ctx, p)
	assert.ErrorIs(t, err, ErrPreimageNotFound)
	assert.NoError(t, b.Drop(ctx, p), "dropping twice is harmless")
}

func TestBounded_Corrupted(t *testing.T) {
	_, _, err := Inline([]byte{0xc1}).Peek(context.Background(), newPreimages(t))
	assert.ErrorIs(t, err, ErrScheduledCallCorrupted)
}
