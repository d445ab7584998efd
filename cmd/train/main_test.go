package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/artifact"
)

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-report-chart")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"-addr", ":1"}, &stdout, &stderr))
	stderr.Reset()
	assert.Equal(t, 2, run([]string{"-log-level", "loud"}, &stdout, &stderr))
}

func TestRunMissingSource(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-source", filepath.Join(t.TempDir(), "absent.csv"),
		"-artifacts", t.TempDir(),
	}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: ")
	assert.Empty(t, stdout.String())
}

// linearStudents writes rows whose math score is a near-linear function of
// the reading and writing scores.
func linearStudents(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,math_score,reading_score,writing_score\n")
	for i := 0; i < n; i++ {
		reading := 35 + (i*29)%60
		writing := reading + (i*7)%9 - 4
		math := reading/2 + writing*2/5 + (i*3)%5
		gender := []string{"female", "male"}[i%2]
		lunch := []string{"standard", "free/reduced"}[i%3/2]
		fmt.Fprintf(&b, "%s,group %c,high school,%s,none,%d,%d,%d\n", gender, 'A'+rune(i%5), lunch, math, reading, writing)
	}
	path := filepath.Join(t.TempDir(), "stud.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestRunTrainsAndWritesChart(t *testing.T) {
	if testing.Short() {
		t.Skip("trains every candidate family")
	}
	root := filepath.Join(t.TempDir(), "artifacts")
	chart := filepath.Join(t.TempDir(), "report.png")

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-source", linearStudents(t, 90),
		"-artifacts", root,
		"-report-chart", chart,
		"-n-jobs", "2",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "best model: ")
	assert.Contains(t, out, "r2 score: ")
	assert.Contains(t, out, "Random Forest")
	assert.Contains(t, out, "AdaBoost Regressor")

	store := artifact.NewStore(root)
	assert.True(t, store.Has(artifact.PreprocessorFile, artifact.ModelFile))
	_, err := os.Stat(chart)
	assert.NoError(t, err)
}
