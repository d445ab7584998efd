package ensemble

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/sklearn/tree"
)

// AdaBoost.R2 loss functions.
const (
	LossLinear      = "linear"
	LossSquare      = "square"
	LossExponential = "exponential"
)

// AdaBoostRegressor implements AdaBoost.R2 (Drucker, 1997) over depth-3
// regression trees. Each stage is trained on a weighted bootstrap sample;
// predictions are the weighted median of the stage predictions.
type AdaBoostRegressor struct {
	State *model.StateManager

	NEstimators  int
	LearningRate float64
	Loss         string
	MaxDepth     int
	RandomState  int64

	Trees   []*tree.Node
	Weights []float64
}

// NewAdaBoostRegressor returns a booster with scikit-learn defaults.
func NewAdaBoostRegressor() *AdaBoostRegressor {
	return &AdaBoostRegressor{
		State:        model.NewStateManager(),
		NEstimators:  50,
		LearningRate: 1.0,
		Loss:         LossLinear,
		MaxDepth:     3,
		RandomState:  42,
	}
}

// Fit runs up to NEstimators boosting stages. Boosting stops early on a
// perfect stage or on a stage whose weighted error reaches 0.5.
func (a *AdaBoostRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "AdaBoostRegressor.Fit")

	rows, target, err := model.CheckFitInput("AdaBoostRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if a.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", a.NEstimators)
	}
	if a.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", a.LearningRate)
	}
	switch a.Loss {
	case LossLinear, LossSquare, LossExponential:
	default:
		return errors.NewValidationError("loss", "must be linear, square or exponential", a.Loss)
	}

	n := len(rows)
	b := tree.Builder{Criterion: tree.CriterionSquaredError, MaxDepth: a.MaxDepth, MinSamplesSplit: 2, MinSamplesLeaf: 1}
	rng := newRand(a.RandomState)

	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	cdf := make([]float64, n)
	errs := make([]float64, n)

	var trees []*tree.Node
	var weights []float64
	for m := 0; m < a.NEstimators; m++ {
		// 重み付きブートストラップ
		floats.CumSum(cdf, w)
		total := cdf[n-1]
		idx := make([]int, n)
		for k := range idx {
			u := rng.Float64() * total
			j := sort.SearchFloat64s(cdf, u)
			if j >= n {
				j = n - 1
			}
			idx[k] = j
		}
		t := b.Build(rows, target, idx, rng)

		maxErr := 0.0
		for i, x := range rows {
			errs[i] = math.Abs(t.Predict(x) - target[i])
			if errs[i] > maxErr {
				maxErr = errs[i]
			}
		}
		if maxErr > 0 {
			for i := range errs {
				errs[i] /= maxErr
				switch a.Loss {
				case LossSquare:
					errs[i] *= errs[i]
				case LossExponential:
					errs[i] = 1 - math.Exp(-errs[i])
				}
			}
		}
		stageErr := floats.Dot(w, errs)
		if err := errors.CheckScalar("AdaBoostRegressor.stage_error", stageErr, m); err != nil {
			return err
		}

		if stageErr <= 0 {
			trees = append(trees, t)
			weights = append(weights, 1)
			break
		}
		if stageErr >= 0.5 {
			if len(trees) == 0 {
				// 最初の段だけは残す（空のモデルにしない）
				trees = append(trees, t)
				weights = append(weights, 1)
			}
			errors.Warn(errors.NewConvergenceWarning("AdaBoostRegressor", len(trees),
				fmt.Sprintf("stage error %.3f >= 0.5", stageErr)))
			break
		}

		beta, weight, err := a.stageWeight(stageErr, m)
		if err != nil {
			return err
		}
		trees = append(trees, t)
		weights = append(weights, weight)

		for i := range w {
			w[i] *= math.Pow(beta, (1-errs[i])*a.LearningRate)
		}
		sum := floats.Sum(w)
		if sum <= 0 {
			break
		}
		floats.Scale(1/sum, w)
	}

	a.Trees = trees
	a.Weights = weights
	if a.State == nil {
		a.State = model.NewStateManager()
	}
	a.State.SetFitted(len(rows[0]), n)
	return nil
}

// stageWeight returns the boosting factor beta for a stage with weighted
// error stageErr in (0, 0.5) and the stage's vote weight.
func (a *AdaBoostRegressor) stageWeight(stageErr float64, iteration int) (float64, float64, error) {
	beta := stageErr / (1 - stageErr)
	if err := errors.CheckScalar("AdaBoostRegressor.beta", beta, iteration); err != nil {
		return 0, 0, err
	}
	weight := a.LearningRate * math.Log(1/beta)
	if err := errors.CheckScalar("AdaBoostRegressor.stage_weight", weight, iteration); err != nil {
		return 0, 0, err
	}
	return beta, weight, nil
}

// Predict returns the weighted median of the stage predictions.
func (a *AdaBoostRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, err := model.CheckPredictInput("AdaBoostRegressor", a.State, X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	preds := make([]float64, len(a.Trees))
	order := make([]int, len(a.Trees))
	half := 0.5 * floats.Sum(a.Weights)
	for i, x := range rows {
		for k, t := range a.Trees {
			preds[k] = t.Predict(x)
			order[k] = k
		}
		sort.SliceStable(order, func(p, q int) bool { return preds[order[p]] < preds[order[q]] })
		cum := 0.0
		out[i] = preds[order[len(order)-1]]
		for _, k := range order {
			cum += a.Weights[k]
			if cum >= half {
				out[i] = preds[k]
				break
			}
		}
	}
	return model.ColumnMatrix(out), nil
}

// GetParams returns the hyperparameters.
func (a *AdaBoostRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":  a.NEstimators,
		"learning_rate": a.LearningRate,
		"loss":          a.Loss,
		"max_depth":     a.MaxDepth,
		"random_state":  a.RandomState,
	}
}

// SetParams updates hyperparameters by name.
func (a *AdaBoostRegressor) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "n_estimators":
			a.NEstimators, err = model.ParamInt(k, v)
		case "learning_rate":
			a.LearningRate, err = model.ParamFloat(k, v)
		case "loss":
			a.Loss, err = model.ParamString(k, v)
		case "max_depth":
			a.MaxDepth, err = model.ParamInt(k, v)
		case "random_state":
			var s int
			s, err = model.ParamInt(k, v)
			a.RandomState = int64(s)
		default:
			err = model.UnknownParam("AdaBoostRegressor", k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (a *AdaBoostRegressor) Clone() model.Regressor {
	c := NewAdaBoostRegressor()
	_ = c.SetParams(a.GetParams()) // GetParams の値は常に受け付けられる
	return c
}
