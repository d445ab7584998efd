// Package neighbors implements k-nearest-neighbour regression.
package neighbors

import (
	"encoding/gob"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/core/parallel"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

func init() {
	gob.Register(&KNeighborsRegressor{})
}

// Neighbour weighting schemes.
const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// KNeighborsRegressor predicts the (optionally distance-weighted) mean target
// of the k closest training samples. Equal distances are ordered by training
// index, so predictions do not depend on scheduling.
type KNeighborsRegressor struct {
	State *model.StateManager

	NNeighbors int
	Weights    string
	P          int // Minkowski power: 1 (manhattan) or 2 (euclidean)
	NJobs      int

	TrainX [][]float64
	TrainY []float64
}

// NewKNeighborsRegressor returns a regressor with scikit-learn defaults.
func NewKNeighborsRegressor() *KNeighborsRegressor {
	return &KNeighborsRegressor{
		State:      model.NewStateManager(),
		NNeighbors: 5,
		Weights:    WeightsUniform,
		P:          2,
	}
}

// Fit stores the training data.
func (k *KNeighborsRegressor) Fit(X, y mat.Matrix) error {
	rows, target, err := model.CheckFitInput("KNeighborsRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if err := k.validate(); err != nil {
		return err
	}
	k.TrainX = rows
	k.TrainY = target
	if k.State == nil {
		k.State = model.NewStateManager()
	}
	k.State.SetFitted(len(rows[0]), len(rows))
	return nil
}

func (k *KNeighborsRegressor) validate() error {
	if k.NNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be at least 1", k.NNeighbors)
	}
	if k.Weights != WeightsUniform && k.Weights != WeightsDistance {
		return errors.NewValidationError("weights", "must be uniform or distance", k.Weights)
	}
	if k.P != 1 && k.P != 2 {
		return errors.NewValidationError("p", "must be 1 or 2", k.P)
	}
	return nil
}

// Predict evaluates every query row in parallel.
func (k *KNeighborsRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, err := model.CheckPredictInput("KNeighborsRegressor", k.State, X)
	if err != nil {
		return nil, err
	}
	if k.NNeighbors > len(k.TrainX) {
		return nil, errors.NewValueError("KNeighborsRegressor.Predict",
			"n_neighbors exceeds the number of training samples")
	}
	out := make([]float64, len(rows))
	parallel.ParallelizeWithWorkers(len(rows), parallel.Resolve(k.NJobs), func(start, end int) {
		buf := make([]neighbor, 0, len(k.TrainX))
		for i := start; i < end; i++ {
			out[i] = k.predictOne(rows[i], buf[:0])
		}
	})
	return model.ColumnMatrix(out), nil
}

type neighbor struct {
	dist  float64
	index int
}

func (k *KNeighborsRegressor) predictOne(x []float64, nbrs []neighbor) float64 {
	for j, xj := range k.TrainX {
		nbrs = append(nbrs, neighbor{dist: floats.Distance(x, xj, float64(k.P)), index: j})
	}
	sort.Slice(nbrs, func(a, b int) bool {
		if nbrs[a].dist != nbrs[b].dist {
			return nbrs[a].dist < nbrs[b].dist
		}
		return nbrs[a].index < nbrs[b].index
	})
	nbrs = nbrs[:k.NNeighbors]

	if k.Weights == WeightsUniform {
		var sum float64
		for _, n := range nbrs {
			sum += k.TrainY[n.index]
		}
		return sum / float64(len(nbrs))
	}

	// 距離0の近傍があればそれらだけの平均
	var exact []float64
	for _, n := range nbrs {
		if n.dist == 0 {
			exact = append(exact, k.TrainY[n.index])
		}
	}
	if len(exact) > 0 {
		return floats.Sum(exact) / float64(len(exact))
	}
	var num, den float64
	for _, n := range nbrs {
		w := 1 / n.dist
		num += w * k.TrainY[n.index]
		den += w
	}
	if math.IsInf(den, 0) || den == 0 {
		return k.TrainY[nbrs[0].index]
	}
	return num / den
}

// GetParams returns the hyperparameters.
func (k *KNeighborsRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": k.NNeighbors,
		"weights":     k.Weights,
		"p":           k.P,
		"n_jobs":      k.NJobs,
	}
}

// SetParams updates hyperparameters by name.
func (k *KNeighborsRegressor) SetParams(params map[string]interface{}) error {
	for key, v := range params {
		var err error
		switch key {
		case "n_neighbors":
			k.NNeighbors, err = model.ParamInt(key, v)
		case "weights":
			k.Weights, err = model.ParamString(key, v)
		case "p":
			k.P, err = model.ParamInt(key, v)
		case "n_jobs":
			k.NJobs, err = model.ParamInt(key, v)
		default:
			err = model.UnknownParam("KNeighborsRegressor", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (k *KNeighborsRegressor) Clone() model.Regressor {
	c := NewKNeighborsRegressor()
	_ = c.SetParams(k.GetParams()) // GetParams の値は常に受け付けられる
	return c
}
