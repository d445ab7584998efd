package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

func TestIngestWritesRawAndSplits(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "stud.csv"), studentCSV(101))
	store := artifact.NewStore(filepath.Join(dir, "artifacts"))

	trainPath, testPath, err := NewDataIngestion(src, store).Ingest()
	require.NoError(t, err)
	assert.Equal(t, store.TrainPath(), trainPath)
	assert.Equal(t, store.TestPath(), testPath)

	raw, err := dataset.ReadCSV(store.DataPath())
	require.NoError(t, err)
	train, err := dataset.ReadCSV(trainPath)
	require.NoError(t, err)
	test, err := dataset.ReadCSV(testPath)
	require.NoError(t, err)

	assert.Equal(t, 101, raw.Len())
	assert.Equal(t, 21, test.Len(), "ceil(0.2*101)")
	assert.Equal(t, 80, train.Len())
	assert.Equal(t, raw.Columns, train.Columns)

	// 分割は元の行の並べ替えになっている
	key := func(row []string) string { return strings.Join(row, "|") }
	var rawKeys, splitKeys []string
	for _, r := range raw.Rows {
		rawKeys = append(rawKeys, key(r))
	}
	for _, r := range append(append([][]string(nil), train.Rows...), test.Rows...) {
		splitKeys = append(splitKeys, key(r))
	}
	sort.Strings(rawKeys)
	sort.Strings(splitKeys)
	assert.Equal(t, rawKeys, splitKeys)
}

func TestIngestIsReproducible(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "stud.csv"), studentCSV(50))

	read := func(root string) []byte {
		store := artifact.NewStore(filepath.Join(dir, root))
		_, testPath, err := NewDataIngestion(src, store).Ingest()
		require.NoError(t, err)
		b, err := os.ReadFile(testPath)
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, read("a"), read("b"))
}

func TestIngestErrors(t *testing.T) {
	dir := t.TempDir()
	store := artifact.NewStore(filepath.Join(dir, "artifacts"))

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(dir, "nope.csv")
		_, _, err := NewDataIngestion(path, store).Ingest()
		var ie *errors.IngestionError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, path, ie.Path)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing column", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "short.csv"), "gender,reading_score\nfemale,70\n")
		_, _, err := NewDataIngestion(path, store).Ingest()
		var ie *errors.IngestionError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, 1, ie.Line)
		assert.Contains(t, err.Error(), "math_score")
	})

	t.Run("ragged row", func(t *testing.T) {
		content := studentHeader + "\nfemale,group a,high school,standard,none,70,71\n"
		path := writeFile(t, filepath.Join(dir, "ragged.csv"), content)
		_, _, err := NewDataIngestion(path, store).Ingest()
		var ie *errors.IngestionError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, 2, ie.Line)
	})

	t.Run("header only", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "empty.csv"), studentHeader+"\n")
		_, _, err := NewDataIngestion(path, store).Ingest()
		assert.ErrorIs(t, err, errors.ErrEmptyData)
	})
}
