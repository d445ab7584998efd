package tree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// stepData は x<=3 で 10、それ以外で 20 になる階段関数
func stepData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 2, []float64{
		0, 5,
		1, 3,
		2, 8,
		3, 1,
		4, 9,
		5, 2,
		6, 7,
		7, 4,
	})
	y := mat.NewDense(8, 1, []float64{10, 10, 10, 10, 20, 20, 20, 20})
	return X, y
}

func TestDecisionTreeRegressorFitsStep(t *testing.T) {
	for _, criterion := range []string{CriterionSquaredError, CriterionFriedmanMSE} {
		t.Run(criterion, func(t *testing.T) {
			X, y := stepData()
			dt := NewDecisionTreeRegressor(WithCriterion(criterion))
			require.NoError(t, dt.Fit(X, y))

			assert.Equal(t, 0, dt.Root.Feature)
			assert.Equal(t, 3.5, dt.Root.Threshold)
			assert.Equal(t, 2, dt.Root.Leaves())
			assert.Equal(t, 1, dt.Root.Depth())

			pred, err := dt.Predict(mat.NewDense(2, 2, []float64{1.5, 0, 6.5, 0}))
			require.NoError(t, err)
			assert.Equal(t, 10.0, pred.At(0, 0))
			assert.Equal(t, 20.0, pred.At(1, 0))
		})
	}
}

func TestDecisionTreeRegressorMaxDepth(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})

	full := NewDecisionTreeRegressor()
	require.NoError(t, full.Fit(X, y))
	pred, err := full.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(y, pred), "unlimited depth memorises distinct targets")

	stump := NewDecisionTreeRegressor(WithMaxDepth(1))
	require.NoError(t, stump.Fit(X, y))
	assert.Equal(t, 1, stump.Root.Depth())
}

func TestDecisionTreeRegressorMinSamplesLeaf(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 0, 0, 100})

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(3))
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, 3, dt.Root.Left.NSamples)
	assert.Equal(t, 3, dt.Root.Right.NSamples)
}

func TestDecisionTreeRegressorErrors(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	_, err := dt.Predict(mat.NewDense(1, 2, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	X, y := stepData()
	require.NoError(t, dt.Fit(X, y))
	_, err = dt.Predict(mat.NewDense(1, 3, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	assert.Error(t, dt.Fit(X, mat.NewDense(3, 1, nil)))
	assert.Error(t, dt.SetParams(map[string]interface{}{"criterion": "gini"}))
	assert.ErrorIs(t, dt.SetParams(map[string]interface{}{"alpha": 1.0}), errors.ErrUnknownParam)
}

func TestDecisionTreeRegressorParamsAndClone(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.SetParams(map[string]interface{}{
		"criterion": CriterionFriedmanMSE,
		"max_depth": 4.0,
	}))
	assert.Equal(t, CriterionFriedmanMSE, dt.GetParams()["criterion"])
	assert.Equal(t, 4, dt.GetParams()["max_depth"])

	X, y := stepData()
	require.NoError(t, dt.Fit(X, y))

	c := dt.Clone().(*DecisionTreeRegressor)
	assert.Equal(t, dt.GetParams(), c.GetParams())
	assert.False(t, c.State.IsFitted())
	assert.Nil(t, c.Root)
}

func TestDecisionTreeRegressorGob(t *testing.T) {
	X, y := stepData()
	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))

	var buf bytes.Buffer
	var reg model.Regressor = dt
	require.NoError(t, model.SaveModelToWriter(&reg, &buf))

	var loaded model.Regressor
	require.NoError(t, model.LoadModelFromReader(&loaded, &buf))

	want, err := dt.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
