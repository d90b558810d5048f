// Package weight models the computational budget consumed while servicing
// scheduled tasks. A Weight has two dimensions (execution time and proof
// size) but callers only ever add, subtract and compare weights.
package weight

import (
	"fmt"
	"math"
)

// Weight is a two-dimensional cost value.
type Weight struct {
	// RefTime is the execution time component in picoseconds.
	RefTime uint64 `mapstructure:"ref_time" codec:"r"`

	// ProofSize is the storage proof component in bytes.
	ProofSize uint64 `mapstructure:"proof_size" codec:"p"`
}

// Zero is the empty weight.
var Zero = Weight{}

// Max is the largest representable weight.
var Max = Weight{RefTime: math.MaxUint64, ProofSize: math.MaxUint64}

// FromParts builds a weight from its two components.
func FromParts(refTime, proofSize uint64) Weight {
	return Weight{RefTime: refTime, ProofSize: proofSize}
}

// FromRefTime builds a weight with only an execution time component.
func FromRefTime(refTime uint64) Weight {
	return Weight{RefTime: refTime}
}

// IsZero reports whether both components are zero.
func (w Weight) IsZero() bool {
	return w.RefTime == 0 && w.ProofSize == 0
}

// SaturatingAdd returns w + o, clamping each component at MaxUint64.
func (w Weight) SaturatingAdd(o Weight) Weight {
	return Weight{
		RefTime:   satAdd(w.RefTime, o.RefTime),
		ProofSize: satAdd(w.ProofSize, o.ProofSize),
	}
}

// SaturatingSub returns w - o, clamping each component at zero.
func (w Weight) SaturatingSub(o Weight) Weight {
	return Weight{
		RefTime:   satSub(w.RefTime, o.RefTime),
		ProofSize: satSub(w.ProofSize, o.ProofSize),
	}
}

// Mul scales both components by n, saturating on overflow.
func (w Weight) Mul(n uint64) Weight {
	return Weight{
		RefTime:   satMul(w.RefTime, n),
		ProofSize: satMul(w.ProofSize, n),
	}
}

// AllLTE reports whether every component of w is <= the matching component of o.
func (w Weight) AllLTE(o Weight) bool {
	return w.RefTime <= o.RefTime && w.ProofSize <= o.ProofSize
}

// AnyGT reports whether any component of w is > the matching component of o.
func (w Weight) AnyGT(o Weight) bool {
	return !w.AllLTE(o)
}

// String renders the weight for logs.
func (w Weight) String() string {
	return fmt.Sprintf("Weight(ref_time: %d, proof_size: %d)", w.RefTime, w.ProofSize)
}

func satAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		return math.MaxUint64
	}
	return a * b
}
