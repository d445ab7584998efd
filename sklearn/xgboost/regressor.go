// Package xgboost implements a second-order gradient boosted tree regressor
// in the style of XGBoost: exact greedy splits scored with gradient and
// hessian sums, L1/L2 regularised leaf weights and a minimum split loss.
package xgboost

import (
	"encoding/gob"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/sklearn/tree"
)

func init() {
	gob.Register(&XGBRegressor{})
}

// XGBRegressor boosts regression trees on the squared-error objective.
type XGBRegressor struct {
	State *model.StateManager

	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinChildWeight  float64
	Gamma           float64
	RegLambda       float64
	RegAlpha        float64
	Subsample       float64
	ColsampleBytree float64
	RandomState     int64

	BaseScore float64
	Trees     []*tree.Node
}

// NewXGBRegressor returns a regressor with XGBoost defaults.
func NewXGBRegressor() *XGBRegressor {
	return &XGBRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		LearningRate:    0.3,
		MaxDepth:        6,
		MinChildWeight:  1,
		RegLambda:       1,
		Subsample:       1,
		ColsampleBytree: 1,
	}
}

type trainer struct {
	X        [][]float64
	grad     []float64
	hess     []float64
	features []int
	cfg      *XGBRegressor
}

// Fit boosts NEstimators trees starting from the target mean.
func (x *XGBRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "XGBRegressor.Fit")

	rows, target, err := model.CheckFitInput("XGBRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if err := x.validate(); err != nil {
		return err
	}

	n, p := len(rows), len(rows[0])
	rng := rand.New(rand.NewPCG(uint64(x.RandomState), uint64(x.RandomState)))

	x.BaseScore = stat.Mean(target, nil)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = x.BaseScore
	}

	tr := &trainer{X: rows, grad: make([]float64, n), hess: make([]float64, n), cfg: x}
	trees := make([]*tree.Node, 0, x.NEstimators)
	for m := 0; m < x.NEstimators; m++ {
		// 二乗誤差: g = pred - y, h = 1
		for i := range pred {
			tr.grad[i] = pred[i] - target[i]
			tr.hess[i] = 1
		}
		idx := sampleRows(n, x.Subsample, rng)
		tr.features = sampleColumns(p, x.ColsampleBytree, rng)

		t := tr.grow(idx, 0)
		for i, row := range rows {
			pred[i] += t.Predict(row)
		}
		if err := errors.CheckNumericalStability("XGBRegressor.Fit", pred, m); err != nil {
			return err
		}
		trees = append(trees, t)
	}

	x.Trees = trees
	if x.State == nil {
		x.State = model.NewStateManager()
	}
	x.State.SetFitted(p, n)
	return nil
}

func (x *XGBRegressor) validate() error {
	switch {
	case x.NEstimators < 1:
		return errors.NewValidationError("n_estimators", "must be at least 1", x.NEstimators)
	case x.LearningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be positive", x.LearningRate)
	case x.RegLambda < 0:
		return errors.NewValidationError("reg_lambda", "must be non-negative", x.RegLambda)
	case x.Subsample <= 0 || x.Subsample > 1:
		return errors.NewValidationError("subsample", "must be in (0, 1]", x.Subsample)
	case x.ColsampleBytree <= 0 || x.ColsampleBytree > 1:
		return errors.NewValidationError("colsample_bytree", "must be in (0, 1]", x.ColsampleBytree)
	}
	return nil
}

func sampleRows(n int, ratio float64, rng *rand.Rand) []int {
	k := int(math.Round(ratio * float64(n)))
	if k >= n || k < 1 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := rng.Perm(n)[:k]
	sort.Ints(idx)
	return idx
}

func sampleColumns(p int, ratio float64, rng *rand.Rand) []int {
	k := int(math.Round(ratio * float64(p)))
	if k < 1 {
		k = 1
	}
	if k >= p {
		cols := make([]int, p)
		for j := range cols {
			cols[j] = j
		}
		return cols
	}
	cols := rng.Perm(p)[:k]
	sort.Ints(cols)
	return cols
}

// thresholdL1 applies the L1 soft threshold to a gradient sum.
func thresholdL1(g, alpha float64) float64 {
	switch {
	case g > alpha:
		return g - alpha
	case g < -alpha:
		return g + alpha
	}
	return 0
}

func (tr *trainer) score(g, h float64) float64 {
	t := thresholdL1(g, tr.cfg.RegAlpha)
	return t * t / (h + tr.cfg.RegLambda)
}

func (tr *trainer) leafWeight(g, h float64) float64 {
	return -thresholdL1(g, tr.cfg.RegAlpha) / (h + tr.cfg.RegLambda) * tr.cfg.LearningRate
}

func (tr *trainer) grow(idx []int, depth int) *tree.Node {
	var G, H float64
	for _, i := range idx {
		G += tr.grad[i]
		H += tr.hess[i]
	}
	leaf := &tree.Node{Leaf: true, Value: tr.leafWeight(G, H), NSamples: len(idx)}
	if depth >= tr.cfg.MaxDepth || len(idx) < 2 {
		return leaf
	}

	parent := tr.score(G, H)
	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	for _, f := range tr.features {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return tr.X[order[a]][f] < tr.X[order[b]][f] })

		var GL, HL float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			GL += tr.grad[i]
			HL += tr.hess[i]
			lo, hi := tr.X[i][f], tr.X[order[k+1]][f]
			if lo == hi {
				continue
			}
			GR, HR := G-GL, H-HL
			if HL < tr.cfg.MinChildWeight || HR < tr.cfg.MinChildWeight {
				continue
			}
			gain := 0.5*(tr.score(GL, HL)+tr.score(GR, HR)-parent) - tr.cfg.Gamma
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold == hi {
					bestThreshold = lo
				}
			}
		}
	}
	if bestFeature < 0 {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if tr.X[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &tree.Node{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		NSamples:  len(idx),
		Left:      tr.grow(left, depth+1),
		Right:     tr.grow(right, depth+1),
	}
}

// Predict returns BaseScore plus the sum of the tree outputs.
func (x *XGBRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, err := model.CheckPredictInput("XGBRegressor", x.State, X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		v := x.BaseScore
		for _, t := range x.Trees {
			v += t.Predict(row)
		}
		out[i] = v
	}
	return model.ColumnMatrix(out), nil
}

// GetParams returns the hyperparameters.
func (x *XGBRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     x.NEstimators,
		"learning_rate":    x.LearningRate,
		"max_depth":        x.MaxDepth,
		"min_child_weight": x.MinChildWeight,
		"gamma":            x.Gamma,
		"reg_lambda":       x.RegLambda,
		"reg_alpha":        x.RegAlpha,
		"subsample":        x.Subsample,
		"colsample_bytree": x.ColsampleBytree,
		"random_state":     x.RandomState,
	}
}

// SetParams updates hyperparameters by name.
func (x *XGBRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "n_estimators":
			x.NEstimators, err = model.ParamInt(k, v)
		case "learning_rate":
			x.LearningRate, err = model.ParamFloat(k, v)
		case "max_depth":
			x.MaxDepth, err = model.ParamInt(k, v)
		case "min_child_weight":
			x.MinChildWeight, err = model.ParamFloat(k, v)
		case "gamma":
			x.Gamma, err = model.ParamFloat(k, v)
		case "reg_lambda":
			x.RegLambda, err = model.ParamFloat(k, v)
		case "reg_alpha":
			x.RegAlpha, err = model.ParamFloat(k, v)
		case "subsample":
			x.Subsample, err = model.ParamFloat(k, v)
		case "colsample_bytree":
			x.ColsampleBytree, err = model.ParamFloat(k, v)
		case "random_state":
			var s int
			s, err = model.ParamInt(k, v)
			x.RandomState = int64(s)
		default:
			err = model.UnknownParam("XGBRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (x *XGBRegressor) Clone() model.Regressor {
	c := NewXGBRegressor()
	_ = c.SetParams(x.GetParams()) // GetParams の値は常に受け付けられる
	return c
}
