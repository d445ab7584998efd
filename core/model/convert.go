package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Rows copies a matrix into row slices.
func Rows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, X)
	}
	return rows
}

// Column extracts the single column of an n×1 matrix.
func Column(op string, y mat.Matrix) ([]float64, error) {
	r, c := y.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError(op, 1, c, 1)
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = y.At(i, 0)
	}
	return out, nil
}

// ColumnMatrix wraps values as an n×1 matrix.
func ColumnMatrix(values []float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

// CheckFitInput validates the X/y pair passed to Fit and returns X as rows
// together with y as a slice.
func CheckFitInput(op string, X, y mat.Matrix) ([][]float64, []float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	yr, _ := y.Dims()
	if yr != r {
		return nil, nil, errors.NewDimensionError(op, r, yr, 0)
	}
	target, err := Column(op, y)
	if err != nil {
		return nil, nil, err
	}
	rows := Rows(X)
	if err := errors.CheckMatrix(op, X, r, c, 0); err != nil {
		return nil, nil, err
	}
	if err := errors.CheckNumericalStability(op, target, 0); err != nil {
		return nil, nil, err
	}
	return rows, target, nil
}

// CheckPredictInput validates the feature count of X against the fitted state.
func CheckPredictInput(op string, state *StateManager, X mat.Matrix) ([][]float64, error) {
	if state == nil || !state.IsFitted() {
		return nil, errors.NewNotFittedError(op, "Predict")
	}
	nFeatures, _ := state.GetDimensions()
	_, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, c, 1)
	}
	return Rows(X), nil
}

// SelectRows returns the rows of X (and y) at idx, preserving order.
func SelectRows(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for k, i := range idx {
		xs[k] = X[i]
		ys[k] = y[i]
	}
	return xs, ys
}

// DenseFromRows builds a matrix from row slices.
func DenseFromRows(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	c := len(rows[0])
	data := make([]float64, 0, len(rows)*c)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), c, data)
}
