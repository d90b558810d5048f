package preimage

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database/memory"
)

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	s, err := NewStore(memory.NewDB(), cfg, log.Nop())
	require.NoError(t, err)
	return s
}

func TestStore_RefCounting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, DefaultConfig())
	data := []byte("a payload that is noted twice")

	h1, err := s.Note(ctx, data)
	require.NoError(t, err)
	h2, err := s.Note(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, HashOf(data), h1)

	refs, err := s.Refs(ctx, h1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), refs)

	require.NoError(t, s.Drop(ctx, h1))
	have, err := s.Have(ctx, h1)
	require.NoError(t, err)
	assert.True(t, have, "one reference left")

	require.NoError(t, s.Drop(ctx, h1))
	have, err = s.Have(ctx, h1)
	require.NoError(t, err)
	assert.False(t, have)

	_, err = s.Fetch(ctx, h1, uint32(len(data)))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Drop(ctx, h1), ErrNotFound)
}

func TestStore_FetchCompressed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Config{CompressThreshold: 64})
	data := bytes.Repeat([]byte("scheduler"), 400)

	h, err := s.Note(ctx, data)
	require.NoError(t, err)

	rec, err := s.load(ctx, h)
	require.NoError(t, err)
	assert.True(t, rec.Compressed)
	assert.Less(t, len(rec.Data), len(data))

	got, err := s.Fetch(ctx, h, uint32(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	n, err := s.Len(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(data)), n)
}

func TestStore_LengthAndSizeChecks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Config{MaxLen: 16, CacheSize: 4})

	_, err := s.Note(ctx, make([]byte, 17))
	assert.ErrorIs(t, err, ErrTooBig)

	h, err := s.Note(ctx, []byte("0123456789"))
	require.NoError(t, err)

	_, err = s.Fetch(ctx, h, 9)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	// Second fetch is served from the cache and must still check the length.
	_, err = s.Fetch(ctx, h, 10)
	require.NoError(t, err)
	_, err = s.Fetch(ctx, h, 11)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestParseHash(t *testing.T) {
	h := HashOf([]byte("x"))
	got, err := ParseHash(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, got)

	_, err = ParseHash("abcd")
	assert.Error(t, err)
}
