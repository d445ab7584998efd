package errors

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		var rows [][]float64
		_ = rows[3][0]
		return nil
	}

	err := testFunc()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, As(err, &panicErr))
	assert.Equal(t, "TestOperation", panicErr.Operation)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Contains(t, panicErr.String(), "Stack trace:")
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		return nil
	}
	assert.NoError(t, testFunc())
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in TestOperation")
	assert.True(t, Is(err, originalErr))
}

func TestSafeExecute(t *testing.T) {
	assert.NoError(t, SafeExecute("ok", func() error { return nil }))

	fnErr := fmt.Errorf("function error")
	assert.Equal(t, fnErr, SafeExecute("fails", func() error { return fnErr }))

	err := SafeExecute("panics", func() error { panic("boom") })
	var panicErr *PanicError
	require.True(t, As(err, &panicErr))
	assert.Equal(t, "boom", panicErr.PanicValue)
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("update", []float64{1, 2, 3}, 0))

	err := CheckNumericalStability("update", []float64{1, math.NaN()}, 7)
	var inst *NumericalInstabilityError
	require.True(t, As(err, &inst))
	assert.Equal(t, 7, inst.Iteration)
}
