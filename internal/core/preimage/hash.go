package preimage

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// Hash is the content address of a preimage.
type Hash [32]byte

// HashOf returns the first 32 bytes of the SHA-512 digest of data.
func HashOf(data []byte) Hash {
	h := sha512.Sum512(data)
	var out Hash
	copy(out[:], h[:32])
	return out
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash decodes a 64 character hex string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("invalid hash length %d", len(raw))
	}
	copy(h[:], raw)
	return h, nil
}
