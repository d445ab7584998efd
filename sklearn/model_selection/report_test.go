package model_selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelReportBest(t *testing.T) {
	r := NewModelReport()
	r.Add("A", 0.91)
	r.Add("B", 0.85)
	r.Add("C", 0.93)

	name, score, ok := r.Best()
	assert.True(t, ok)
	assert.Equal(t, "C", name)
	assert.Equal(t, 0.93, score)
	assert.Equal(t, []string{"A", "B", "C"}, r.Names())
}

func TestModelReportTiesKeepInsertionOrder(t *testing.T) {
	r := NewModelReport()
	r.Add("first", 0.8)
	r.Add("nan", math.NaN())
	r.Add("second", 0.8)

	name, _, ok := r.Best()
	assert.True(t, ok)
	assert.Equal(t, "first", name)

	r.Add("first", 0.1)
	assert.Equal(t, []string{"first", "nan", "second"}, r.Names())
	name, _, _ = r.Best()
	assert.Equal(t, "second", name)
}

func TestModelReportEmpty(t *testing.T) {
	_, _, ok := NewModelReport().Best()
	assert.False(t, ok)
	assert.Equal(t, 0, NewModelReport().Len())
}
