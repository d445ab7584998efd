// Package tree implements CART regression trees.
package tree

import (
	"encoding/gob"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/core/parallel"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

func init() {
	gob.Register(&DecisionTreeRegressor{})
}

// DecisionTreeRegressor is a single CART regression tree.
type DecisionTreeRegressor struct {
	State *model.StateManager

	Criterion       string
	MaxDepth        int // <= 0: unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // <= 0: all features
	RandomState     int64

	Root *Node
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithCriterion sets the split criterion.
func WithCriterion(c string) Option { return func(t *DecisionTreeRegressor) { t.Criterion = c } }

// WithMaxDepth limits the depth of the tree.
func WithMaxDepth(d int) Option { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }

// WithMinSamplesLeaf sets the minimum number of samples per leaf.
func WithMinSamplesLeaf(n int) Option { return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n } }

// WithRandomState sets the seed used for feature subsampling.
func WithRandomState(seed int64) Option { return func(t *DecisionTreeRegressor) { t.RandomState = seed } }

// NewDecisionTreeRegressor returns a regressor with scikit-learn defaults.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		State:           model.NewStateManager(),
		Criterion:       CriterionSquaredError,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		RandomState:     42,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *DecisionTreeRegressor) builder() Builder {
	return Builder{
		Criterion:       t.Criterion,
		MaxDepth:        t.MaxDepth,
		MinSamplesSplit: t.MinSamplesSplit,
		MinSamplesLeaf:  t.MinSamplesLeaf,
		MaxFeatures:     t.MaxFeatures,
	}
}

// Fit grows the tree on X and y.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	rows, target, err := model.CheckFitInput("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if err := validateCriterion(t.Criterion); err != nil {
		return err
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(t.RandomState), uint64(t.RandomState)))
	t.Root = t.builder().Build(rows, target, idx, rng)

	if t.State == nil {
		t.State = model.NewStateManager()
	}
	t.State.SetFitted(len(rows[0]), len(rows))
	return nil
}

// Predict returns one prediction per row of X.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, err := model.CheckPredictInput("DecisionTreeRegressor", t.State, X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	parallel.ParallelizeWithThreshold(len(rows), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = t.Root.Predict(rows[i])
		}
	})
	return model.ColumnMatrix(out), nil
}

// GetParams returns the hyperparameters.
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         t.Criterion,
		"max_depth":         t.MaxDepth,
		"min_samples_split": t.MinSamplesSplit,
		"min_samples_leaf":  t.MinSamplesLeaf,
		"max_features":      t.MaxFeatures,
		"random_state":      t.RandomState,
	}
}

// SetParams updates hyperparameters by name.
func (t *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "criterion":
			var c string
			if c, err = model.ParamString(k, v); err == nil {
				if err = validateCriterion(c); err == nil {
					t.Criterion = c
				}
			}
		case "max_depth":
			t.MaxDepth, err = model.ParamInt(k, v)
		case "min_samples_split":
			t.MinSamplesSplit, err = model.ParamInt(k, v)
		case "min_samples_leaf":
			t.MinSamplesLeaf, err = model.ParamInt(k, v)
		case "max_features":
			t.MaxFeatures, err = model.ParamInt(k, v)
		case "random_state":
			var s int
			s, err = model.ParamInt(k, v)
			t.RandomState = int64(s)
		default:
			err = model.UnknownParam("DecisionTreeRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (t *DecisionTreeRegressor) Clone() model.Regressor {
	c := NewDecisionTreeRegressor()
	c.Criterion = t.Criterion
	c.MaxDepth = t.MaxDepth
	c.MinSamplesSplit = t.MinSamplesSplit
	c.MinSamplesLeaf = t.MinSamplesLeaf
	c.MaxFeatures = t.MaxFeatures
	c.RandomState = t.RandomState
	return c
}

func validateCriterion(c string) error {
	switch c {
	case CriterionSquaredError, CriterionFriedmanMSE:
		return nil
	}
	return errors.NewValidationError("criterion", "must be squared_error or friedman_mse", c)
}
