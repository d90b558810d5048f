// Package dispatch defines the opaque calls carried by scheduled tasks and
// the executor that runs them.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"
)

var (
	// ErrInvalidCall is returned when encoded call bytes cannot be decoded.
	ErrInvalidCall = errors.New("invalid call encoding")
)

var mh = newHandle()

func newHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.Canonical = true
	h.RawToString = true
	return h
}

// Call identifies a routine by module and method plus its encoded arguments.
type Call struct {
	Module string `codec:"m"`
	Method string `codec:"f"`
	Args   []byte `codec:"a,omitempty"`
}

// NewCall builds a call, encoding args with the package codec. A nil args
// value produces a call with no arguments.
func NewCall(module, method string, args any) (Call, error) {
	c := Call{Module: module, Method: method}
	if args == nil {
		return c, nil
	}
	raw, err := EncodeArgs(args)
	if err != nil {
		return Call{}, err
	}
	c.Args = raw
	return c, nil
}

// Name returns "module.method".
func (c Call) Name() string {
	return c.Module + "." + c.Method
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%d bytes)", c.Name(), len(c.Args))
}

// Encode serializes the call. The encoding is deterministic.
func (c Call) Encode() ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, mh).Encode(&c); err != nil {
		return nil, fmt.Errorf("encode call %s: %w", c.Name(), err)
	}
	return out, nil
}

// DecodeCall reverses Call.Encode.
func DecodeCall(data []byte) (Call, error) {
	var c Call
	if len(data) == 0 {
		return c, fmt.Errorf("%w: empty", ErrInvalidCall)
	}
	if err := codec.NewDecoderBytes(data, mh).Decode(&c); err != nil {
		return Call{}, fmt.Errorf("%w: %v", ErrInvalidCall, err)
	}
	if c.Module == "" || c.Method == "" {
		return Call{}, fmt.Errorf("%w: missing module or method", ErrInvalidCall)
	}
	return c, nil
}

// EncodeArgs serializes call arguments.
func EncodeArgs(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, mh).Encode(v); err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	return out, nil
}

// DecodeArgs deserializes call arguments into v.
func DecodeArgs(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := codec.NewDecoderBytes(data, mh).Decode(v); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}
