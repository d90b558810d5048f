// Package origin defines the opaque capability tokens attached to scheduled
// tasks and the privilege ordering used to authorize cancellation.
package origin

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidOrigin indicates an encoded or textual origin that cannot be parsed.
	ErrInvalidOrigin = errors.New("invalid origin")
)

// Kind discriminates the built-in origins.
type Kind uint8

const (
	// KindNone is an unauthenticated origin.
	KindNone Kind = 0
	// KindSigned is an origin backed by a single account.
	KindSigned Kind = 1
	// KindRoot is the most privileged origin.
	KindRoot Kind = 2
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindSigned:
		return "Signed"
	case KindRoot:
		return "Root"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Origin is an opaque capability token. The scheduler never inspects it
// beyond Encode (for persistence and equality) and the Comparator.
type Origin interface {
	Kind() Kind
	Encode() []byte
	String() string
}

// Root is the privileged origin.
type Root struct{}

func (Root) Kind() Kind     { return KindRoot }
func (Root) Encode() []byte { return []byte{byte(KindRoot)} }
func (Root) String() string { return "root" }

// None is the unauthenticated origin.
type None struct{}

func (None) Kind() Kind     { return KindNone }
func (None) Encode() []byte { return []byte{byte(KindNone)} }
func (None) String() string { return "none" }

// Signed is an origin backed by an account ID.
type Signed struct {
	Account [20]byte
}

func (s Signed) Kind() Kind { return KindSigned }

func (s Signed) Encode() []byte {
	out := make([]byte, 0, 1+len(s.Account))
	out = append(out, byte(KindSigned))
	return append(out, s.Account[:]...)
}

func (s Signed) String() string {
	return "signed:" + hex.EncodeToString(s.Account[:])
}

// Same reports whether two origins encode identically.
func Same(a, b Origin) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return bytes.Equal(a.Encode(), b.Encode())
}

// Decode reverses Origin.Encode.
func Decode(data []byte) (Origin, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty encoding", ErrInvalidOrigin)
	}
	switch Kind(data[0]) {
	case KindRoot:
		if len(data) != 1 {
			return nil, fmt.Errorf("%w: trailing bytes after root", ErrInvalidOrigin)
		}
		return Root{}, nil
	case KindNone:
		if len(data) != 1 {
			return nil, fmt.Errorf("%w: trailing bytes after none", ErrInvalidOrigin)
		}
		return None{}, nil
	case KindSigned:
		var s Signed
		if len(data) != 1+len(s.Account) {
			return nil, fmt.Errorf("%w: signed origin has %d bytes", ErrInvalidOrigin, len(data))
		}
		copy(s.Account[:], data[1:])
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidOrigin, data[0])
	}
}

// Parse reads the textual form used in configuration and scenario files:
// "root", "none" or "signed:<40 hex chars>".
func Parse(s string) (Origin, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "root":
		return Root{}, nil
	case s == "none" || s == "":
		return None{}, nil
	case strings.HasPrefix(s, "signed:"):
		raw, err := hex.DecodeString(strings.TrimPrefix(s, "signed:"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
		}
		var sig Signed
		if len(raw) != len(sig.Account) {
			return nil, fmt.Errorf("%w: account must be %d bytes, got %d", ErrInvalidOrigin, len(sig.Account), len(raw))
		}
		copy(sig.Account[:], raw)
		return sig, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, s)
	}
}
