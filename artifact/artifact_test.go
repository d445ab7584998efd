package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

type bundle struct {
	Name   string
	Scores []float64
}

func TestSaveLoadObjectRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "obj.gob")
	in := bundle{Name: "x", Scores: []float64{1, 2.5}}
	require.NoError(t, SaveObject(path, in))

	var out bundle
	require.NoError(t, LoadObject(path, &out))
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadObjectMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), ModelFile)
	var out bundle
	err := LoadObject(path, &out)

	var nf *errors.ArtifactNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{path}, nf.Searched)
}

func TestStorePaths(t *testing.T) {
	s := NewStore("/srv/a")
	assert.Equal(t, filepath.Join("/srv/a", "model.gob"), s.ModelPath())
	assert.Equal(t, filepath.Join("/srv/a", "preprocessor.gob"), s.PreprocessorPath())
	assert.Equal(t, filepath.Join("/srv/a", "train.csv"), s.TrainPath())
	assert.Equal(t, filepath.Join("/srv/a", "test.csv"), s.TestPath())
	assert.Equal(t, filepath.Join("/srv/a", "data.csv"), s.DataPath())
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestLocatorPicksFirstCompleteRoot(t *testing.T) {
	base := t.TempDir()
	a, b, c := filepath.Join(base, "a"), filepath.Join(base, "b"), filepath.Join(base, "c")
	touch(t, filepath.Join(a, PreprocessorFile))
	touch(t, filepath.Join(b, PreprocessorFile))
	touch(t, filepath.Join(b, ModelFile))
	touch(t, filepath.Join(c, PreprocessorFile))
	touch(t, filepath.Join(c, ModelFile))

	s, err := NewLocatorWithCandidates(a, b, c, b).Locate(PreprocessorFile, ModelFile)
	require.NoError(t, err)
	assert.Equal(t, b, s.Root)
}

func TestLocatorListsEverySearchedPath(t *testing.T) {
	base := t.TempDir()
	a, b := filepath.Join(base, "a"), filepath.Join(base, "b")
	touch(t, filepath.Join(a, PreprocessorFile))

	_, err := NewLocatorWithCandidates(a, b).Locate(PreprocessorFile, ModelFile)
	var nf *errors.ArtifactNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{
		filepath.Join(a, PreprocessorFile),
		filepath.Join(a, ModelFile),
		filepath.Join(b, PreprocessorFile),
		filepath.Join(b, ModelFile),
	}, nf.Searched)
	assert.Contains(t, err.Error(), filepath.Join(b, ModelFile))
}

func TestNewLocatorExplicitRootIsOnlyCandidate(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocator(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, l.Candidates)
}

func TestNewLocatorDefaults(t *testing.T) {
	l, err := NewLocator("")
	require.NoError(t, err)
	require.NotEmpty(t, l.Candidates)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, DirName), l.Candidates[0])

	// テストはモジュール内で実行されるので go.mod のあるルートも候補に入る
	root, ok := ProjectRoot(cwd)
	require.True(t, ok)
	assert.Contains(t, l.Candidates, filepath.Join(root, DirName))
}

func TestDiagnose(t *testing.T) {
	base := t.TempDir()
	a, b := filepath.Join(base, "a"), filepath.Join(base, "missing")
	touch(t, filepath.Join(a, ModelFile))
	touch(t, filepath.Join(a, DataFile))

	st := NewLocatorWithCandidates(a, b).Diagnose()
	require.Len(t, st, 2)
	assert.True(t, st[0].Exists)
	assert.Equal(t, []string{DataFile, ModelFile}, st[0].Files)
	assert.False(t, st[1].Exists)
}

func TestProjectRoot(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "go.mod"))
	deep := filepath.Join(base, "x", "y")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	root, ok := ProjectRoot(deep)
	require.True(t, ok)
	assert.Equal(t, filepath.Clean(base), root)
}
