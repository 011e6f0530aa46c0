package randutil

import (
	"hash/maphash"
	"math/rand/v2"
)

// New returns a PCG-backed generator seeded from the runtime hash seed.
func New() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

// Int draws floor(r.Float64()*min)+min and clamps it into [min, max].
//
// The result is skewed towards min and is not uniform over [min, max].
func Int(r *rand.Rand, min, max int) int {
	if min > max {
		return min
	}
	value := int(r.Float64()*float64(min)) + min
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
