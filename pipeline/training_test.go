package pipeline

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/config"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

func TestDefaultCandidatesOrder(t *testing.T) {
	var names []string
	for _, c := range DefaultCandidates() {
		names = append(names, c.Name)
		require.NotNil(t, c.Model)
		combos, err := c.Grid.Expand()
		require.NoError(t, err)
		for _, params := range combos {
			require.NoError(t, c.Model.Clone().SetParams(params), "%s %v", c.Name, params)
		}
	}
	assert.Equal(t, []string{
		"Random Forest", "Decision Tree", "Gradient Boosting", "KNN Regressor",
		"XGBRegressor", "CatBoosting Regressor", "AdaBoost Regressor",
	}, names)
}

func TestTrainingPipelineAllCandidates(t *testing.T) {
	if testing.Short() {
		t.Skip("trains all seven candidate families")
	}
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.SourcePath = writeFile(t, filepath.Join(dir, "stud.csv"), studentCSV(100))
	cfg.ArtifactRoot = filepath.Join(dir, "artifacts")

	res, err := NewTrainingPipeline(cfg).Run()
	require.NoError(t, err)
	assert.Equal(t, 7, res.Report.Len())
	assert.GreaterOrEqual(t, res.Score, 0.6)

	name, score, ok := res.Report.Best()
	require.True(t, ok)
	assert.Equal(t, name, res.BestModel)
	assert.Equal(t, score, res.Score)

	var bundle ModelArtifact
	require.NoError(t, artifact.LoadObject(res.Store.ModelPath(), &bundle))
	assert.Equal(t, name, bundle.Name)
}

func TestTrainingPipelineStopsAtIngestion(t *testing.T) {
	cfg := config.Defaults()
	cfg.SourcePath = filepath.Join(t.TempDir(), "absent.csv")
	cfg.ArtifactRoot = t.TempDir()

	res, err := NewTrainingPipeline(cfg).Run()
	var ie *errors.IngestionError
	require.True(t, errors.As(err, &ie))
	assert.Nil(t, res.Report)
}

func TestFailedRetrainDiscardsPreviousModel(t *testing.T) {
	store := trainFast(t)
	require.True(t, store.Has(artifact.ModelFile))

	// An extra race category widens the one-hot block of the new preprocessor.
	csv := strings.Replace(studentCSV(120), "group A", "group F", 3)
	cfg := config.Defaults()
	cfg.SourcePath = writeFile(t, filepath.Join(t.TempDir(), "stud.csv"), csv)
	cfg.ArtifactRoot = store.Root

	broken := newTargetEcho(0.9)
	broken.Fail = true
	p := NewTrainingPipeline(cfg)
	p.Trainer.Candidates = []Candidate{{Name: "Broken", Model: broken}}

	_, err := p.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Broken"`)
	assert.True(t, store.Has(artifact.PreprocessorFile))
	assert.False(t, store.Has(artifact.ModelFile))

	_, err = NewPredictPipeline(artifact.NewLocatorWithCandidates(store.Root)).Predict(sampleRecord())
	var nf *errors.ArtifactNotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Contains(t, nf.Searched, store.ModelPath())
}
