package risk

import (
	"math"
	"math/rand/v2"
)

const splitTolerance = 1e-9

// splitIndices shuffles [0, n) with the given seed and returns the
// train and test index sets. The test size is ceil(n*ratio), with a small
// tolerance so products like 10000*0.2 do not round up.
func splitIndices(n int, ratio float64, seed uint64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	nTest := int(math.Ceil(float64(n)*ratio - splitTolerance))
	r := rand.New(rand.NewPCG(seed, seed))
	perm := r.Perm(n)
	return perm[nTest:], perm[:nTest]
}
