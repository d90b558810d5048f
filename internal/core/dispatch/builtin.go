package dispatch

import (
	"context"
	"errors"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
)

// ErrCallFailed is what system.fail returns.
var ErrCallFailed = errors.New("call failed")

// RemarkArgs carries an arbitrary payload for system.remark.
type RemarkArgs struct {
	Data []byte `codec:"d"`
}

// BurnArgs declares and consumes a fixed weight for system.burn.
type BurnArgs struct {
	RefTime   uint64 `codec:"r"`
	ProofSize uint64 `codec:"p"`
}

// RegisterSystem installs the system.* calls:
//
//	system.remark  no-op, costs perByte per payload byte
//	system.burn    consumes the weight given in its arguments
//	system.fail    always fails after consuming its declared weight
//	system.root    accepts only the root origin
func RegisterSystem(rt *Router, perByte weight.Weight) {
	rt.Handle("system", "remark", Route{
		WeightFn: func(args []byte) weight.Weight {
			var a RemarkArgs
			if err := DecodeArgs(args, &a); err != nil {
				return perByte
			}
			return perByte.Mul(uint64(len(a.Data)) + 1)
		},
	})
	rt.Handle("system", "burn", Route{
		WeightFn: func(args []byte) weight.Weight {
			var a BurnArgs
			if err := DecodeArgs(args, &a); err != nil {
				return weight.Zero
			}
			return weight.FromParts(a.RefTime, a.ProofSize)
		},
	})
	rt.Handle("system", "fail", Route{
		Weight: perByte,
		Handler: func(context.Context, origin.Origin, []byte) (weight.Weight, error) {
			return weight.Zero, ErrCallFailed
		},
	})
	rt.Handle("system", "root", Route{
		Weight:  perByte,
		Origins: []origin.Kind{origin.KindRoot},
	})
}
