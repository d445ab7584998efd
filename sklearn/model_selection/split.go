// Package model_selection provides cross-validation splitters, a train/test
// splitter, exhaustive grid search and the per-candidate score report used to
// pick the production model.
package model_selection

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// CVFold は1つの分割の学習・検証インデックス
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold は連続したブロックでk分割する分割器
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int64
}

// NewKFold は新しいKFoldを作成する
func NewKFold(nSplits int, shuffle bool, randomSeed int64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// GetNSplits は分割数を返す
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold. The first n%k folds get
// one extra test sample; without shuffling folds are contiguous blocks.
func (kf *KFold) Split(nSamples int) ([]CVFold, error) {
	if kf.NSplits < 2 {
		return nil, errors.NewValidationError("cv_folds", "must be at least 2", kf.NSplits)
	}
	if nSamples < kf.NSplits {
		return nil, errors.NewValueError("KFold.Split",
			"cannot have number of splits greater than the number of samples")
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := newRand(kf.RandomSeed)
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		test := append([]int(nil), indices[current:current+testSize]...)
		train := make([]int, 0, nSamples-testSize)
		train = append(train, indices[:current]...)
		train = append(train, indices[current+testSize:]...)
		folds[i] = CVFold{TrainIndices: train, TestIndices: test}
		current += testSize
	}
	return folds, nil
}

// TrainTestSplitIndices shuffles [0, n) with a seeded PCG source and returns
// the last n-ceil(testRatio*n) positions as train and the first ceil(testRatio*n) as test.
func TrainTestSplitIndices(n int, testRatio float64, seed int64) (train, test []int, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, errors.NewValidationError("test_ratio", "must be in (0, 1)", testRatio)
	}
	nTest := int(math.Ceil(testRatio * float64(n)))
	if n < 2 || nTest >= n {
		return nil, nil, errors.NewValueError("TrainTestSplitIndices",
			"not enough samples for a non-empty train and test split")
	}
	perm := newRand(seed).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}
