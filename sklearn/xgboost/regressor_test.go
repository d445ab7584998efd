package xgboost

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
)

func stepData() (*mat.Dense, *mat.Dense) {
	return mat.NewDense(4, 1, []float64{1, 2, 3, 4}), mat.NewDense(4, 1, []float64{0, 0, 10, 10})
}

func stump(lambda float64) *XGBRegressor {
	x := NewXGBRegressor()
	x.NEstimators = 1
	x.MaxDepth = 1
	x.LearningRate = 1
	x.RegLambda = lambda
	return x
}

func TestXGBRegressorSingleStump(t *testing.T) {
	X, y := stepData()

	x := stump(0)
	require.NoError(t, x.Fit(X, y))
	assert.Equal(t, 5.0, x.BaseScore)
	assert.Equal(t, 2.5, x.Trees[0].Threshold)

	pred, err := x.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(y, pred, 1e-12))
}

func TestXGBRegressorLambdaShrinksLeaves(t *testing.T) {
	X, y := stepData()

	x := stump(1)
	require.NoError(t, x.Fit(X, y))
	pred, err := x.Predict(X)
	require.NoError(t, err)
	// 葉の重み = -G/(H+λ) = -10/3
	assert.InDelta(t, 5-10.0/3, pred.At(0, 0), 1e-12)
	assert.InDelta(t, 5+10.0/3, pred.At(3, 0), 1e-12)
}

func TestXGBRegressorGammaPrunes(t *testing.T) {
	X, y := stepData()

	x := stump(1)
	x.Gamma = 1000
	require.NoError(t, x.Fit(X, y))
	assert.True(t, x.Trees[0].Leaf)

	pred, err := x.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 5.0, pred.At(i, 0), 1e-12)
	}
}

func TestXGBRegressorLearnsSmoothFunction(t *testing.T) {
	n := 100
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		a, b := float64(i%10), float64(i/10)
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.Set(i, 0, 2*a+math.Sqrt(b))
	}

	x := NewXGBRegressor()
	require.NoError(t, x.SetParams(map[string]interface{}{"n_estimators": 50, "learning_rate": 0.1, "subsample": 0.8}))
	require.NoError(t, x.Fit(X, y))
	pred, err := x.Predict(X)
	require.NoError(t, err)
	r2, err := metrics.R2ScoreMatrix(y, pred)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.95)
}

func TestThresholdL1(t *testing.T) {
	assert.Equal(t, 2.0, thresholdL1(3, 1))
	assert.Equal(t, -2.0, thresholdL1(-3, 1))
	assert.Equal(t, 0.0, thresholdL1(0.5, 1))
}

func TestXGBRegressorValidation(t *testing.T) {
	X, y := stepData()
	for _, params := range []map[string]interface{}{
		{"n_estimators": 0},
		{"learning_rate": 0.0},
		{"subsample": 1.5},
		{"colsample_bytree": 0.0},
	} {
		x := NewXGBRegressor()
		require.NoError(t, x.SetParams(params))
		assert.Error(t, x.Fit(X, y), "%v", params)
	}
	assert.ErrorIs(t, NewXGBRegressor().SetParams(map[string]interface{}{"eta": 0.1}), errors.ErrUnknownParam)

	_, err := NewXGBRegressor().Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestXGBRegressorGobAndClone(t *testing.T) {
	X, y := stepData()
	x := NewXGBRegressor()
	x.NEstimators = 3
	require.NoError(t, x.Fit(X, y))
	assert.Equal(t, x.GetParams(), x.Clone().GetParams())

	var reg model.Regressor = x
	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(&reg, &buf))
	var loaded model.Regressor
	require.NoError(t, model.LoadModelFromReader(&loaded, &buf))

	want, err := x.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
