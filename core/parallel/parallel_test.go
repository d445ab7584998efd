package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

func TestResolve(t *testing.T) {
	assert.Equal(t, 3, Resolve(3))
	assert.Equal(t, DefaultWorkers(), Resolve(0))
	assert.Equal(t, DefaultWorkers(), Resolve(-1))
	assert.Greater(t, DefaultWorkers(), 0)
}

func TestParallelizeWithWorkersCoversRange(t *testing.T) {
	for _, tc := range []struct{ items, workers int }{
		{0, 4}, {1, 4}, {7, 3}, {10, 1}, {10, 20}, {100, 0},
	} {
		seen := make([]int32, tc.items)
		ParallelizeWithWorkers(tc.items, tc.workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, n := range seen {
			require.EqualValues(t, 1, n, "items=%d workers=%d index=%d", tc.items, tc.workers, i)
		}
	}
}

func TestParallelizeWithThresholdRunsInlineBelowThreshold(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(5, 10, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 5, end)
	})
	assert.EqualValues(t, 1, calls)
}

func TestRunReturnsLowestIndexError(t *testing.T) {
	var ran int32
	err := Run(20, 4, func(i int) error {
		atomic.AddInt32(&ran, 1)
		if i == 13 || i == 7 {
			return errors.Newf("job %d", i)
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 7")
	assert.EqualValues(t, 20, ran, "every job runs")
}

func TestRunConvertsPanics(t *testing.T) {
	err := Run(3, 2, func(i int) error {
		if i == 1 {
			panic("bad job")
		}
		return nil
	})
	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe))
}

func TestRunEmpty(t *testing.T) {
	assert.NoError(t, Run(0, 4, func(int) error { t.Fatal("called"); return nil }))
}
