// Package ensemble implements tree ensembles for regression: bagged random
// forests, least-squares gradient boosting and AdaBoost.R2.
//
// All ensembles grow their trees with tree.Builder. Randomness comes from
// math/rand/v2 PCG sources seeded from RandomState, so a fixed seed gives the
// same model regardless of how many workers are used.
package ensemble

import (
	"encoding/gob"
	"math/rand/v2"
)

func init() {
	gob.Register(&RandomForestRegressor{})
	gob.Register(&GradientBoostingRegressor{})
	gob.Register(&AdaBoostRegressor{})
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

func indices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
