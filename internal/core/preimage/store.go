// Package preimage is a content-addressed, reference-counted blob store for
// call payloads too large to keep inline in a scheduled task.
package preimage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ugorji/go/codec"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database"
)

// DefaultMaxLen is the largest payload accepted by Note.
const DefaultMaxLen = 4 * 1024 * 1024

// Provider stores preimages for the scheduler.
type Provider interface {
	// Note stores data, or adds a reference if it is already present.
	Note(ctx context.Context, data []byte) (Hash, error)

	// Fetch returns the payload stored under h. length must match the
	// length recorded by Note.
	Fetch(ctx context.Context, h Hash, length uint32) ([]byte, error)

	// Drop releases one reference; the payload is removed at zero.
	Drop(ctx context.Context, h Hash) error

	// Have reports whether h is stored.
	Have(ctx context.Context, h Hash) (bool, error)

	// Len returns the stored payload length.
	Len(ctx context.Context, h Hash) (uint32, error)
}

// Config tunes a Store.
type Config struct {
	// MaxLen is the largest accepted payload.
	MaxLen uint32 `mapstructure:"max_len"`

	// CacheSize is the number of decoded payloads kept in memory. Zero disables caching.
	CacheSize int `mapstructure:"cache_size"`

	// CompressThreshold is the payload size from which lz4 is attempted.
	// Zero disables compression.
	CompressThreshold uint32 `mapstructure:"compress_threshold"`
}

// DefaultConfig returns the defaults used by the daemon.
func DefaultConfig() Config {
	return Config{
		MaxLen:            DefaultMaxLen,
		CacheSize:         256,
		CompressThreshold: 512,
	}
}

var keyPrefix = []byte("preimage/")

// record is the persisted form of one preimage.
type record struct {
	Len        uint32 `codec:"l"`
	Refs       uint32 `codec:"r"`
	Compressed bool   `codec:"c"`
	Data       []byte `codec:"d"`
}

var mh = &codec.MsgpackHandle{WriteExt: true}

// Store is a Provider backed by a database.DB.
type Store struct {
	db     database.DB
	cfg    Config
	cache  *lru.Cache[Hash, []byte]
	logger log.Logger

	mu sync.Mutex
}

// NewStore creates a Store on db.
func NewStore(db database.DB, cfg Config, logger log.Logger) (*Store, error) {
	if cfg.MaxLen == 0 {
		cfg.MaxLen = DefaultMaxLen
	}
	s := &Store{db: db, cfg: cfg, logger: logger.Component("preimage")}
	if cfg.CacheSize > 0 {
		c, err := lru.New[Hash, []byte](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create preimage cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

func storageKey(h Hash) []byte {
	k := make([]byte, 0, len(keyPrefix)+len(h))
	k = append(k, keyPrefix...)
	return append(k, h[:]...)
}

func (s *Store) load(ctx context.Context, h Hash) (*record, error) {
	raw, err := s.db.Read(ctx, storageKey(h))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, newError("read", h, err)
	}
	var rec record
	if err := codec.NewDecoderBytes(raw, mh).Decode(&rec); err != nil {
		return nil, newError("decode", h, fmt.Errorf("%w: %v", ErrDataCorrupt, err))
	}
	return &rec, nil
}

func (s *Store) save(ctx context.Context, h Hash, rec *record) error {
	var raw []byte
	if err := codec.NewEncoderBytes(&raw, mh).Encode(rec); err != nil {
		return newError("encode", h, err)
	}
	if err := s.db.Write(ctx, storageKey(h), raw); err != nil {
		return newError("write", h, err)
	}
	return nil
}

// Note implements Provider.
func (s *Store) Note(ctx context.Context, data []byte) (Hash, error) {
	if uint64(len(data)) > uint64(s.cfg.MaxLen) {
		return Hash{}, fmt.Errorf("%w: %d > %d", ErrTooBig, len(data), s.cfg.MaxLen)
	}
	h := HashOf(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx, h)
	switch {
	case err == nil:
		rec.Refs++
		if err := s.save(ctx, h, rec); err != nil {
			return Hash{}, err
		}
		return h, nil
	case !errors.Is(err, ErrNotFound):
		return Hash{}, err
	}

	rec = &record{Len: uint32(len(data)), Refs: 1, Data: data}
	if s.cfg.CompressThreshold > 0 && uint32(len(data)) >= s.cfg.CompressThreshold {
		packed, err := compress(data)
		if err != nil {
			return Hash{}, newError("compress", h, err)
		}
		if packed != nil {
			rec.Data = packed
			rec.Compressed = true
		}
	}
	if err := s.save(ctx, h, rec); err != nil {
		return Hash{}, err
	}
	s.logger.Debug("preimage noted",
		log.Stringer("hash", h),
		log.Uint32("len", rec.Len),
		log.Bool("compressed", rec.Compressed))
	return h, nil
}

// Fetch implements Provider.
func (s *Store) Fetch(ctx context.Context, h Hash, length uint32) ([]byte, error) {
	if s.cache != nil {
		if data, ok := s.cache.Get(h); ok {
			if uint32(len(data)) != length {
				return nil, fmt.Errorf("%w: stored %d, requested %d", ErrLengthMismatch, len(data), length)
			}
			return append([]byte(nil), data...), nil
		}
	}

	s.mu.Lock()
	rec, err := s.load(ctx, h)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if rec.Len != length {
		return nil, fmt.Errorf("%w: stored %d, requested %d", ErrLengthMismatch, rec.Len, length)
	}

	data := rec.Data
	if rec.Compressed {
		if data, err = decompress(rec.Data, rec.Len); err != nil {
			return nil, newError("decompress", h, err)
		}
	}
	if uint32(len(data)) != rec.Len {
		return nil, newError("fetch", h, fmt.Errorf("%w: have %d bytes, want %d", ErrDataCorrupt, len(data), rec.Len))
	}
	if s.cache != nil {
		s.cache.Add(h, data)
	}
	return append([]byte(nil), data...), nil
}

// Drop implements Provider. Dropping an unknown hash returns ErrNotFound.
func (s *Store) Drop(ctx context.Context, h Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx, h)
	if err != nil {
		return err
	}
	if rec.Refs > 1 {
		rec.Refs--
		return s.save(ctx, h, rec)
	}

	if err := s.db.Delete(ctx, storageKey(h)); err != nil {
		return newError("delete", h, err)
	}
	if s.cache != nil {
		s.cache.Remove(h)
	}
	s.logger.Debug("preimage removed", log.Stringer("hash", h))
	return nil
}

// Have implements Provider.
func (s *Store) Have(ctx context.Context, h Hash) (bool, error) {
	if s.cache != nil && s.cache.Contains(h) {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load(ctx, h)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Len implements Provider.
func (s *Store) Len(ctx context.Context, h Hash) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, h)
	if err != nil {
		return 0, err
	}
	return rec.Len, nil
}

// Refs returns the reference count of h, or zero if it is not stored.
func (s *Store) Refs(ctx context.Context, h Hash) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, h)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Refs, nil
}
