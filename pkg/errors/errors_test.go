package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "examscore: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			wantMsg: "examscore: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 17, 15, 1)
	assert.Equal(t, "examscore: Predict: dimension mismatch on axis 1 (features). Expected 17, got 15", err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 17, dimErr.Expected)
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("ColumnTransformer", "Transform")
	assert.Equal(t, "examscore: ColumnTransformer: this model is not fitted yet. Call Fit() before using Transform()", err.Error())

	var notFitted *NotFittedError
	assert.True(t, As(err, &notFitted))
}

func TestIngestionErrorCarriesLocation(t *testing.T) {
	cause := New("wrong number of fields")
	err := NewIngestionError(Ctx("ingestion", "read_source"), "stud.csv", 12, cause)

	assert.Equal(t, "examscore: ingestion.read_source: stud.csv line 12: wrong number of fields", err.Error())
	assert.True(t, Is(err, cause))

	var ingErr *IngestionError
	require.True(t, As(err, &ingErr))
	assert.Equal(t, "ingestion", ingErr.Component)
	assert.Equal(t, 12, ingErr.Line)
	assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")
}

func TestTransformationErrorMessage(t *testing.T) {
	err := NewTransformationError(Ctx("transformation", "split_target"), "math_score", New("column not found"))
	assert.Equal(t, `examscore: transformation.split_target: column "math_score": column not found`, err.Error())

	var trErr *TransformationError
	assert.True(t, As(err, &trErr))
}

func TestArtifactNotFoundErrorListsSearchedPaths(t *testing.T) {
	searched := []string{"/a/artifacts/model.gob", "/b/artifacts/model.gob"}
	err := NewArtifactNotFoundError("model.gob", searched)

	assert.Contains(t, err.Error(), "/a/artifacts/model.gob")
	assert.Contains(t, err.Error(), "/b/artifacts/model.gob")

	var nf *ArtifactNotFoundError
	require.True(t, As(err, &nf))
	assert.Equal(t, searched, nf.Searched)
}

func TestInsufficientModelQualityError(t *testing.T) {
	err := NewInsufficientModelQualityError("Decision Tree", 0.42, 0.6)
	assert.Contains(t, err.Error(), `"Decision Tree"`)
	assert.Contains(t, err.Error(), "R2=0.4200")

	var q *InsufficientModelQualityError
	assert.True(t, As(err, &q))
}

func TestPredictionInputError(t *testing.T) {
	cause := New("strconv.ParseFloat: parsing \"abc\": invalid syntax")
	err := NewPredictionInputError("reading_score", "abc", "must be numeric", cause)

	assert.Contains(t, err.Error(), `field "reading_score"`)
	assert.Contains(t, err.Error(), "must be numeric")
	assert.True(t, Is(err, cause))
}

func TestWarnRoutesToZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("r2", "constant y_true", 0))

	require.Len(t, got, 1)
	var w *UndefinedMetricWarning
	assert.True(t, As(got[0], &w))
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s", "SimpleImputer.Fit")
	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in SimpleImputer.Fit")
}
