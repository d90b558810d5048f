package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
)

func TestCall_EncodeDecode(t *testing.T) {
	call, err := NewCall("system", "remark", RemarkArgs{Data: []byte("hello")})
	require.NoError(t, err)

	raw, err := call.Encode()
	require.NoError(t, err)

	again, err := call.Encode()
	require.NoError(t, err)
	assert.Equal(t, raw, again, "encoding must be deterministic")

	got, err := DecodeCall(raw)
	require.NoError(t, err)
	assert.Equal(t, call, got)

	var args RemarkArgs
	require.NoError(t, DecodeArgs(got.Args, &args))
	assert.Equal(t, []byte("hello"), args.Data)
}

func TestDecodeCall_Invalid(t *testing.T) {
	_, err := DecodeCall(nil)
	assert.ErrorIs(t, err, ErrInvalidCall)

	_, err = DecodeCall([]byte{0xc1, 0xff, 0x00})
	assert.ErrorIs(t, err, ErrInvalidCall)

	raw, err := Call{Module: "system"}.Encode()
	require.NoError(t, err)
	_, err = DecodeCall(raw)
	assert.ErrorIs(t, err, ErrInvalidCall)
}

func TestRouter_Dispatch(t *testing.T) {
	rt := NewRouter()
	RegisterSystem(rt, weight.FromRefTime(10))
	ctx := context.Background()

	remark, err := NewCall("system", "remark", RemarkArgs{Data: []byte("abc")})
	require.NoError(t, err)
	assert.Equal(t, weight.FromRefTime(40), rt.Weight(remark))

	used, err := rt.Dispatch(ctx, origin.Root{}, remark)
	require.NoError(t, err)
	assert.Equal(t, weight.FromRefTime(40), used)

	burn, err := NewCall("system", "burn", BurnArgs{RefTime: 500, ProofSize: 7})
	require.NoError(t, err)
	assert.Equal(t, weight.FromParts(500, 7), rt.Weight(burn))

	fail, err := NewCall("system", "fail", nil)
	require.NoError(t, err)
	used, err = rt.Dispatch(ctx, origin.None{}, fail)
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.Equal(t, weight.FromRefTime(10), used)
}

func TestRouter_UnknownAndOrigin(t *testing.T) {
	rt := NewRouter()
	RegisterSystem(rt, weight.FromRefTime(1))
	ctx := context.Background()

	unknown := Call{Module: "balances", Method: "transfer"}
	assert.False(t, rt.Has(unknown))
	assert.Equal(t, weight.Zero, rt.Weight(unknown))
	_, err := rt.Dispatch(ctx, origin.Root{}, unknown)
	assert.ErrorIs(t, err, ErrUnknownCall)

	rootOnly := Call{Module: "system", Method: "root"}
	_, err = rt.Dispatch(ctx, origin.None{}, rootOnly)
	assert.ErrorIs(t, err, ErrBadOrigin)
	_, err = rt.Dispatch(ctx, origin.Root{}, rootOnly)
	assert.NoError(t, err)
}

func TestRouter_HandlerReportsActualWeight(t *testing.T) {
	rt := NewRouter()
	var seen origin.Origin
	rt.Handle("demo", "refund", Route{
		Weight: weight.FromRefTime(100),
		Handler: func(_ context.Context, o origin.Origin, _ []byte) (weight.Weight, error) {
			seen = o
			return weight.FromRefTime(30), nil
		},
	})

	used, err := rt.Dispatch(context.Background(), origin.Root{}, Call{Module: "demo", Method: "refund"})
	require.NoError(t, err)
	assert.Equal(t, weight.FromRefTime(30), used)
	assert.Equal(t, origin.KindRoot, seen.Kind())
}
