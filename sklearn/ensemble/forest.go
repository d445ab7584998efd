package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/core/parallel"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/sklearn/tree"
)

// RandomForestRegressor averages bootstrapped regression trees.
type RandomForestRegressor struct {
	State *model.StateManager

	NEstimators     int
	Criterion       string
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // <= 0: all features, as scikit-learn does for regression
	Bootstrap       bool
	RandomState     int64
	NJobs           int

	Trees []*tree.Node
}

// NewRandomForestRegressor returns a forest with scikit-learn defaults.
func NewRandomForestRegressor() *RandomForestRegressor {
	return &RandomForestRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		Criterion:       tree.CriterionSquaredError,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		RandomState:     42,
	}
}

// Fit grows NEstimators trees in parallel. Tree i uses seed RandomState+i.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	rows, target, err := model.CheckFitInput("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if f.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", f.NEstimators)
	}

	b := tree.Builder{
		Criterion:       f.Criterion,
		MaxDepth:        f.MaxDepth,
		MinSamplesSplit: f.MinSamplesSplit,
		MinSamplesLeaf:  f.MinSamplesLeaf,
		MaxFeatures:     f.MaxFeatures,
	}
	n := len(rows)
	trees := make([]*tree.Node, f.NEstimators)
	err = parallel.Run(f.NEstimators, parallel.Resolve(f.NJobs), func(i int) error {
		rng := newRand(f.RandomState + int64(i))
		idx := indices(n)
		if f.Bootstrap {
			for k := range idx {
				idx[k] = rng.IntN(n)
			}
		}
		trees[i] = b.Build(rows, target, idx, rng)
		return nil
	})
	if err != nil {
		return err
	}

	f.Trees = trees
	if f.State == nil {
		f.State = model.NewStateManager()
	}
	f.State.SetFitted(len(rows[0]), n)

	log.GetLoggerWithName("RandomForestRegressor").Debug("forest fitted",
		log.SamplesKey, n,
		"n_estimators", f.NEstimators,
	)
	return nil
}

// Predict averages the trees' predictions.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, err := model.CheckPredictInput("RandomForestRegressor", f.State, X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	parallel.ParallelizeWithWorkers(len(rows), parallel.Resolve(f.NJobs), func(start, end int) {
		for i := start; i < end; i++ {
			var sum float64
			for _, t := range f.Trees {
				sum += t.Predict(rows[i])
			}
			out[i] = sum / float64(len(f.Trees))
		}
	})
	return model.ColumnMatrix(out), nil
}

// GetParams returns the hyperparameters.
func (f *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      f.NEstimators,
		"criterion":         f.Criterion,
		"max_depth":         f.MaxDepth,
		"min_samples_split": f.MinSamplesSplit,
		"min_samples_leaf":  f.MinSamplesLeaf,
		"max_features":      f.MaxFeatures,
		"bootstrap":         f.Bootstrap,
		"random_state":      f.RandomState,
		"n_jobs":            f.NJobs,
	}
}

// SetParams updates hyperparameters by name.
func (f *RandomForestRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "n_estimators":
			f.NEstimators, err = model.ParamInt(k, v)
		case "criterion":
			f.Criterion, err = model.ParamString(k, v)
		case "max_depth":
			f.MaxDepth, err = model.ParamInt(k, v)
		case "min_samples_split":
			f.MinSamplesSplit, err = model.ParamInt(k, v)
		case "min_samples_leaf":
			f.MinSamplesLeaf, err = model.ParamInt(k, v)
		case "max_features":
			f.MaxFeatures, err = model.ParamInt(k, v)
		case "bootstrap":
			b, ok := v.(bool)
			if !ok {
				err = errors.NewValidationError(k, "must be a bool", v)
			}
			f.Bootstrap = b
		case "random_state":
			var s int
			s, err = model.ParamInt(k, v)
			f.RandomState = int64(s)
		case "n_jobs":
			f.NJobs, err = model.ParamInt(k, v)
		default:
			err = model.UnknownParam("RandomForestRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (f *RandomForestRegressor) Clone() model.Regressor {
	c := NewRandomForestRegressor()
	_ = c.SetParams(f.GetParams()) // GetParams の値は常に受け付けられる
	return c
}
