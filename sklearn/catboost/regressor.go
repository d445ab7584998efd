// Package catboost implements a gradient boosted regressor over oblivious
// (symmetric) decision trees with quantized feature borders, following
// CatBoost's plain boosting scheme for numeric features.
package catboost

import (
	"encoding/gob"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

func init() {
	gob.Register(&CatBoostRegressor{})
}

// Split is one level of an oblivious tree: samples with x[Feature] > Border
// set the level's bit in the leaf index.
type Split struct {
	Feature int
	Border  float64
}

// ObliviousTree applies the same split at every node of a level.
type ObliviousTree struct {
	Splits     []Split
	LeafValues []float64
}

func (t *ObliviousTree) leaf(x []float64) int {
	idx := 0
	for d, s := range t.Splits {
		if x[s.Feature] > s.Border {
			idx |= 1 << d
		}
	}
	return idx
}

// Predict returns the tree output for one sample.
func (t *ObliviousTree) Predict(x []float64) float64 {
	return t.LeafValues[t.leaf(x)]
}

// CatBoostRegressor boosts oblivious trees on the RMSE objective.
type CatBoostRegressor struct {
	State *model.StateManager

	Iterations   int
	LearningRate float64
	Depth        int
	L2LeafReg    float64
	BorderCount  int
	RandomState  int64

	Bias  float64
	Trees []ObliviousTree
}

// NewCatBoostRegressor returns a regressor with CatBoost defaults.
func NewCatBoostRegressor() *CatBoostRegressor {
	return &CatBoostRegressor{
		State:        model.NewStateManager(),
		Iterations:   1000,
		LearningRate: 0.03,
		Depth:        6,
		L2LeafReg:    3,
		BorderCount:  254,
	}
}

func (c *CatBoostRegressor) validate() error {
	switch {
	case c.Iterations < 1:
		return errors.NewValidationError("iterations", "must be at least 1", c.Iterations)
	case c.LearningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	case c.Depth < 1 || c.Depth > 16:
		return errors.NewValidationError("depth", "must be in [1, 16]", c.Depth)
	case c.L2LeafReg < 0:
		return errors.NewValidationError("l2_leaf_reg", "must be non-negative", c.L2LeafReg)
	case c.BorderCount < 1:
		return errors.NewValidationError("border_count", "must be at least 1", c.BorderCount)
	}
	return nil
}

// Fit boosts Iterations trees starting from the target mean.
func (c *CatBoostRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "CatBoostRegressor.Fit")

	rows, target, err := model.CheckFitInput("CatBoostRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	n, p := len(rows), len(rows[0])
	borders := computeBorders(rows, c.BorderCount)

	// 各サンプルの特徴量ごとのビン番号
	bins := make([][]int, p)
	for j := 0; j < p; j++ {
		bins[j] = make([]int, n)
		for i, row := range rows {
			bins[j][i] = binIndex(borders[j], row[j])
		}
	}

	c.Bias = stat.Mean(target, nil)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = c.Bias
	}
	residual := make([]float64, n)
	leafOf := make([]int, n)
	trees := make([]ObliviousTree, 0, c.Iterations)

	for m := 0; m < c.Iterations; m++ {
		for i := range residual {
			residual[i] = target[i] - pred[i]
			leafOf[i] = 0
		}

		var splits []Split
		for d := 0; d < c.Depth; d++ {
			s, ok := c.bestSplit(borders, bins, residual, leafOf, 1<<d)
			if !ok {
				break
			}
			for i := range leafOf {
				if bins[s.feature][i] > s.border {
					leafOf[i] |= 1 << d
				}
			}
			splits = append(splits, Split{Feature: s.feature, Border: borders[s.feature][s.border]})
		}

		nLeaves := 1 << len(splits)
		sums := make([]float64, nLeaves)
		counts := make([]float64, nLeaves)
		for i, l := range leafOf {
			sums[l] += residual[i]
			counts[l]++
		}
		values := make([]float64, nLeaves)
		for l := range values {
			values[l] = c.LearningRate * sums[l] / (counts[l] + c.L2LeafReg)
			if math.IsNaN(values[l]) {
				values[l] = 0
			}
		}
		for i, l := range leafOf {
			pred[i] += values[l]
		}
		if err := errors.CheckNumericalStability("CatBoostRegressor.Fit", pred, m); err != nil {
			return err
		}
		trees = append(trees, ObliviousTree{Splits: splits, LeafValues: values})
	}

	c.Trees = trees
	if c.State == nil {
		c.State = model.NewStateManager()
	}
	c.State.SetFitted(p, n)
	return nil
}

type candidate struct {
	feature int
	border  int // index into borders[feature]
}

// bestSplit picks the (feature, border) that maximises the sum over the
// resulting leaves of S^2/(N+l2), the L2-regularised gain of the RMSE objective.
// A candidate must beat the current best strictly, so ties keep the lowest
// feature and border.
func (c *CatBoostRegressor) bestSplit(borders [][]float64, bins [][]int, residual []float64, leafOf []int, nLeaves int) (candidate, bool) {
	best := candidate{feature: -1}
	bestScore := math.Inf(-1)

	for j, bj := range borders {
		nb := len(bj)
		if nb == 0 {
			continue
		}
		// ヒストグラム: 葉ごと・ビンごとの残差和と件数
		nBins := nb + 1
		sum := make([]float64, nLeaves*nBins)
		cnt := make([]float64, nLeaves*nBins)
		for i, l := range leafOf {
			k := l*nBins + bins[j][i]
			sum[k] += residual[i]
			cnt[k]++
		}
		totalSum := make([]float64, nLeaves)
		totalCnt := make([]float64, nLeaves)
		for l := 0; l < nLeaves; l++ {
			for b := 0; b < nBins; b++ {
				totalSum[l] += sum[l*nBins+b]
				totalCnt[l] += cnt[l*nBins+b]
			}
		}

		leftSum := make([]float64, nLeaves)
		leftCnt := make([]float64, nLeaves)
		for b := 0; b < nb; b++ {
			score := 0.0
			for l := 0; l < nLeaves; l++ {
				leftSum[l] += sum[l*nBins+b]
				leftCnt[l] += cnt[l*nBins+b]
				rs, rc := totalSum[l]-leftSum[l], totalCnt[l]-leftCnt[l]
				score += leftSum[l]*leftSum[l]/(leftCnt[l]+c.L2LeafReg) + rs*rs/(rc+c.L2LeafReg)
			}
			if score > bestScore {
				bestScore = score
				best = candidate{feature: j, border: b}
			}
		}
	}
	return best, best.feature >= 0
}

// Predict returns Bias plus the sum of the tree outputs.
func (c *CatBoostRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, err := model.CheckPredictInput("CatBoostRegressor", c.State, X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		v := c.Bias
		for k := range c.Trees {
			v += c.Trees[k].Predict(row)
		}
		out[i] = v
	}
	return model.ColumnMatrix(out), nil
}

// GetParams returns the hyperparameters.
func (c *CatBoostRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"iterations":    c.Iterations,
		"learning_rate": c.LearningRate,
		"depth":         c.Depth,
		"l2_leaf_reg":   c.L2LeafReg,
		"border_count":  c.BorderCount,
		"random_state":  c.RandomState,
	}
}

// SetParams updates hyperparameters by name.
func (c *CatBoostRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "iterations":
			c.Iterations, err = model.ParamInt(k, v)
		case "learning_rate":
			c.LearningRate, err = model.ParamFloat(k, v)
		case "depth":
			c.Depth, err = model.ParamInt(k, v)
		case "l2_leaf_reg":
			c.L2LeafReg, err = model.ParamFloat(k, v)
		case "border_count":
			c.BorderCount, err = model.ParamInt(k, v)
		case "random_state":
			var s int
			s, err = model.ParamInt(k, v)
			c.RandomState = int64(s)
		default:
			err = model.UnknownParam("CatBoostRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (c *CatBoostRegressor) Clone() model.Regressor {
	cl := NewCatBoostRegressor()
	_ = cl.SetParams(c.GetParams()) // GetParams の値は常に受け付けられる
	return cl
}
