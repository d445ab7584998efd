package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/sklearn/model_selection"
)

func sampleReport() *model_selection.ModelReport {
	r := model_selection.NewModelReport()
	r.Add("Random Forest", 0.85)
	r.Add("Decision Tree", 0.74)
	r.Add("KNN Regressor", 0.88)
	return r
}

func TestSaveChartWritesImage(t *testing.T) {
	for _, ext := range []string{".png", ".svg"} {
		path := filepath.Join(t.TempDir(), "report"+ext)
		require.NoError(t, SaveChart(sampleReport(), 0.6, path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestBarChartRejectsEmptyReport(t *testing.T) {
	_, err := BarChart(model_selection.NewModelReport(), 0.6)
	assert.Error(t, err)
	_, err = BarChart(nil, 0)
	assert.Error(t, err)
}

func TestSaveChartUnknownFormat(t *testing.T) {
	err := SaveChart(sampleReport(), 0, filepath.Join(t.TempDir(), "report.xyz"))
	assert.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleReport()))
	assert.Equal(t,
		"  model          r2\n"+
			"  Random Forest  0.8500\n"+
			"  Decision Tree  0.7400\n"+
			"* KNN Regressor  0.8800\n",
		buf.String())
}

func TestShortNames(t *testing.T) {
	assert.Equal(t, []string{"Random", "KNN", ""}, shortNames([]string{"Random Forest", "KNN", ""}))
}
