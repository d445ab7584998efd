package ensemble

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/sklearn/tree"
)

// GradientBoostingRegressor fits trees to the residuals of a squared-error
// model that starts from the target mean.
type GradientBoostingRegressor struct {
	State *model.StateManager

	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Subsample       float64
	RandomState     int64

	Init  float64
	Trees []*tree.Node
}

// NewGradientBoostingRegressor returns a booster with scikit-learn defaults.
func NewGradientBoostingRegressor() *GradientBoostingRegressor {
	return &GradientBoostingRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Subsample:       1.0,
		RandomState:     42,
	}
}

// Fit runs NEstimators boosting stages.
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GradientBoostingRegressor.Fit")

	rows, target, err := model.CheckFitInput("GradientBoostingRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if g.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", g.NEstimators)
	}
	if g.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", g.LearningRate)
	}
	if g.Subsample <= 0 || g.Subsample > 1 {
		return errors.NewValidationError("subsample", "must be in (0, 1]", g.Subsample)
	}

	n := len(rows)
	b := tree.Builder{
		Criterion:       tree.CriterionFriedmanMSE,
		MaxDepth:        g.MaxDepth,
		MinSamplesSplit: g.MinSamplesSplit,
		MinSamplesLeaf:  g.MinSamplesLeaf,
	}
	rng := newRand(g.RandomState)

	g.Init = stat.Mean(target, nil)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = g.Init
	}
	residual := make([]float64, n)
	trees := make([]*tree.Node, 0, g.NEstimators)

	nSub := int(g.Subsample * float64(n))
	if nSub < 1 {
		nSub = 1
	}
	for m := 0; m < g.NEstimators; m++ {
		for i := range residual {
			residual[i] = target[i] - pred[i]
		}
		idx := indices(n)
		if nSub < n {
			perm := rng.Perm(n)
			idx = perm[:nSub]
		}
		t := b.Build(rows, residual, idx, rng)
		for i, x := range rows {
			pred[i] += g.LearningRate * t.Predict(x)
		}
		if err := errors.CheckNumericalStability("GradientBoostingRegressor.Fit", pred, m); err != nil {
			return err
		}
		trees = append(trees, t)
	}

	g.Trees = trees
	if g.State == nil {
		g.State = model.NewStateManager()
	}
	g.State.SetFitted(len(rows[0]), n)
	return nil
}

// Predict returns Init plus the shrunken sum of all stages.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, err := model.CheckPredictInput("GradientBoostingRegressor", g.State, X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, x := range rows {
		v := g.Init
		for _, t := range g.Trees {
			v += g.LearningRate * t.Predict(x)
		}
		out[i] = v
	}
	return model.ColumnMatrix(out), nil
}

// GetParams returns the hyperparameters.
func (g *GradientBoostingRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      g.NEstimators,
		"learning_rate":     g.LearningRate,
		"max_depth":         g.MaxDepth,
		"min_samples_split": g.MinSamplesSplit,
		"min_samples_leaf":  g.MinSamplesLeaf,
		"subsample":         g.Subsample,
		"random_state":      g.RandomState,
	}
}

// SetParams updates hyperparameters by name.
func (g *GradientBoostingRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "n_estimators":
			g.NEstimators, err = model.ParamInt(k, v)
		case "learning_rate":
			g.LearningRate, err = model.ParamFloat(k, v)
		case "max_depth":
			g.MaxDepth, err = model.ParamInt(k, v)
		case "min_samples_split":
			g.MinSamplesSplit, err = model.ParamInt(k, v)
		case "min_samples_leaf":
			g.MinSamplesLeaf, err = model.ParamInt(k, v)
		case "subsample":
			g.Subsample, err = model.ParamFloat(k, v)
		case "random_state":
			var s int
			s, err = model.ParamInt(k, v)
			g.RandomState = int64(s)
		default:
			err = model.UnknownParam("GradientBoostingRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (g *GradientBoostingRegressor) Clone() model.Regressor {
	c := NewGradientBoostingRegressor()
	_ = c.SetParams(g.GetParams()) // GetParams の値は常に受け付けられる
	return c
}
