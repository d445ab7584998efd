package ensemble

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/metrics"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/sklearn/tree"
)

// smoothData は y = 3*x0 - 2*x1 + sin(x0) の決定的なデータ
func smoothData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i%17) / 4
		x1 := float64((i*7)%11) / 3
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		y.Set(i, 0, 3*x0-2*x1+math.Sin(x0))
	}
	return X, y
}

func fitScore(t *testing.T, m model.Regressor, X, y mat.Matrix) float64 {
	t.Helper()
	require.NoError(t, m.Fit(X, y))
	pred, err := m.Predict(X)
	require.NoError(t, err)
	r2, err := metrics.R2ScoreMatrix(y, pred)
	require.NoError(t, err)
	return r2
}

func TestRegressorsFitTrainingData(t *testing.T) {
	X, y := smoothData(120)

	small := func(m model.Regressor, params map[string]interface{}) model.Regressor {
		require.NoError(t, m.SetParams(params))
		return m
	}
	tests := []struct {
		name  string
		model model.Regressor
		minR2 float64
	}{
		{"random forest", small(NewRandomForestRegressor(), map[string]interface{}{"n_estimators": 20}), 0.9},
		{"gradient boosting", small(NewGradientBoostingRegressor(), map[string]interface{}{"n_estimators": 60}), 0.9},
		{"adaboost", small(NewAdaBoostRegressor(), map[string]interface{}{"n_estimators": 30}), 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Greater(t, fitScore(t, tt.model, X, y), tt.minR2)
		})
	}
}

func TestRandomForestDeterministicAcrossWorkers(t *testing.T) {
	X, y := smoothData(80)

	one := NewRandomForestRegressor()
	require.NoError(t, one.SetParams(map[string]interface{}{"n_estimators": 12, "n_jobs": 1}))
	many := one.Clone().(*RandomForestRegressor)
	many.NJobs = 4

	require.NoError(t, one.Fit(X, y))
	require.NoError(t, many.Fit(X, y))

	a, err := one.Predict(X)
	require.NoError(t, err)
	b, err := many.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestGradientBoostingStartsFromMean(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	g := NewGradientBoostingRegressor()
	g.NEstimators = 1
	g.LearningRate = 0.5
	require.NoError(t, g.Fit(X, y))
	assert.Equal(t, 5.0, g.Init)

	// 1段目の木は残差 [-3 -1 1 3] を学習し、半分だけ加算される
	pred, err := g.Predict(X)
	require.NoError(t, err)
	assert.InDelta(t, 5-1.5, pred.At(0, 0), 1e-12)
	assert.InDelta(t, 5+1.5, pred.At(3, 0), 1e-12)
}

func TestAdaBoostWeightedMedian(t *testing.T) {
	a := NewAdaBoostRegressor()
	a.Trees = []*tree.Node{
		{Leaf: true, Value: 10},
		{Leaf: true, Value: 1},
		{Leaf: true, Value: 5},
	}
	a.State.SetFitted(1, 3)
	X := mat.NewDense(1, 1, []float64{0})

	tests := []struct {
		weights []float64
		want    float64
	}{
		{[]float64{0.3, 0.2, 0.5}, 5},
		{[]float64{0.2, 0.6, 0.2}, 1},
		{[]float64{0.6, 0.2, 0.2}, 10},
	}
	for _, tt := range tests {
		a.Weights = tt.weights
		pred, err := a.Predict(X)
		require.NoError(t, err)
		assert.Equal(t, tt.want, pred.At(0, 0), "weights %v", tt.weights)
	}
}

func TestAdaBoostStopsOnPerfectStage(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{7, 7, 7, 7})

	a := NewAdaBoostRegressor()
	require.NoError(t, a.Fit(X, y))
	assert.Len(t, a.Trees, 1)
	assert.Equal(t, []float64{1}, a.Weights)

	pred, err := a.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(y, pred))
}

func TestAdaBoostStageWeight(t *testing.T) {
	a := NewAdaBoostRegressor()
	beta, weight, err := a.stageWeight(0.25, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, beta, 1e-12)
	assert.InDelta(t, math.Log(3), weight, 1e-12)

	_, _, err = a.stageWeight(math.NaN(), 2)
	var ni *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &ni), "got %v", err)
	assert.Equal(t, "AdaBoostRegressor.beta", ni.Operation)
	assert.Equal(t, 2, ni.Iteration)

	a.LearningRate = math.Inf(1)
	_, _, err = a.stageWeight(0.25, 1)
	require.True(t, errors.As(err, &ni), "got %v", err)
	assert.Equal(t, "AdaBoostRegressor.stage_weight", ni.Operation)
}

func TestEnsembleValidation(t *testing.T) {
	X, y := smoothData(10)

	rf := NewRandomForestRegressor()
	rf.NEstimators = 0
	assert.Error(t, rf.Fit(X, y))

	gb := NewGradientBoostingRegressor()
	gb.LearningRate = 0
	assert.Error(t, gb.Fit(X, y))

	ab := NewAdaBoostRegressor()
	ab.Loss = "huber"
	assert.Error(t, ab.Fit(X, y))

	_, err := NewAdaBoostRegressor().Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	assert.ErrorIs(t, NewGradientBoostingRegressor().SetParams(map[string]interface{}{"depth": 3}), errors.ErrUnknownParam)
	assert.Error(t, NewRandomForestRegressor().SetParams(map[string]interface{}{"n_estimators": "many"}))
}

func TestEnsembleGobRoundTrip(t *testing.T) {
	X, y := smoothData(40)
	models := []model.Regressor{NewRandomForestRegressor(), NewGradientBoostingRegressor(), NewAdaBoostRegressor()}
	for _, m := range models {
		require.NoError(t, m.SetParams(map[string]interface{}{"n_estimators": 5}))
		require.NoError(t, m.Fit(X, y))

		var buf bytes.Buffer
		require.NoError(t, model.SaveModelToWriter(&m, &buf))
		var loaded model.Regressor
		require.NoError(t, model.LoadModelFromReader(&loaded, &buf))

		want, err := m.Predict(X)
		require.NoError(t, err)
		got, err := loaded.Predict(X)
		require.NoError(t, err)
		assert.True(t, mat.Equal(want, got))
	}
}
