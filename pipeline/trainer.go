package pipeline

import (
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/metrics"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/sklearn/model_selection"
)

// DefaultMinR2 is the held-out R² a winner must reach to be persisted.
const DefaultMinR2 = 0.6

// ModelArtifact is the persisted form of the selected model.
type ModelArtifact struct {
	Name      string
	Score     float64
	Params    map[string]string
	TrainedAt time.Time
	Model     model.Regressor
}

// Predict delegates to the bundled model.
func (a *ModelArtifact) Predict(X mat.Matrix) (mat.Matrix, error) {
	if a.Model == nil {
		return nil, errors.NewNotFittedError(a.Name, "Predict")
	}
	return a.Model.Predict(X)
}

// CandidateResult is the outcome of one candidate family.
type CandidateResult struct {
	Name       string
	BestParams map[string]interface{}
	CVScore    float64
	Scores     metrics.Scores
	Model      model.Regressor
}

// ModelTrainer cross-validates every candidate, refits the best parameters
// on the full training set, scores on the test set and persists the winner.
type ModelTrainer struct {
	Store      artifact.Store
	Candidates []Candidate
	CVFolds    int
	MinR2      float64
	NJobs      int

	// Populated by Train, also when the quality gate fails.
	Report  *model_selection.ModelReport
	Results []CandidateResult
}

// NewModelTrainer returns a trainer over DefaultCandidates.
func NewModelTrainer(store artifact.Store) *ModelTrainer {
	return &ModelTrainer{
		Store:      store,
		Candidates: DefaultCandidates(),
		CVFolds:    3,
		MinR2:      DefaultMinR2,
	}
}

// SplitXY separates the feature columns from the trailing target column.
func SplitXY(data *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	r, c := data.Dims()
	if r == 0 || c < 2 {
		return nil, nil, errors.NewModelError("SplitXY", "need at least one feature and a target", errors.ErrEmptyData)
	}
	X := mat.DenseCopyOf(data.Slice(0, r, 0, c-1))
	y := mat.DenseCopyOf(data.Slice(0, r, c-1, c))
	return X, y, nil
}

// Train returns the held-out R² of the persisted winner. Candidate names
// must be unique. Any candidate failure aborts the run. If the best score
// is below MinR2 no model is written and any model.gob left by an earlier
// run is removed.
func (t *ModelTrainer) Train(train, test *mat.Dense) (float64, error) {
	logger := log.GetLoggerWithName("trainer")

	xTrain, yTrain, err := SplitXY(train)
	if err != nil {
		return 0, err
	}
	xTest, yTest, err := SplitXY(test)
	if err != nil {
		return 0, err
	}
	_, cTrain := train.Dims()
	if _, cTest := test.Dims(); cTest != cTrain {
		return 0, errors.NewDimensionError("ModelTrainer.Train", cTrain, cTest, 1)
	}
	if len(t.Candidates) == 0 {
		return 0, errors.NewValueError("ModelTrainer.Train", "no candidate models")
	}
	seen := make(map[string]bool, len(t.Candidates))
	for _, c := range t.Candidates {
		if seen[c.Name] {
			return 0, errors.NewValueError("ModelTrainer.Train", fmt.Sprintf("duplicate candidate name %q", c.Name))
		}
		seen[c.Name] = true
	}

	t.Report = model_selection.NewModelReport()
	t.Results = nil
	fitted := make(map[string]model.Regressor, len(t.Candidates))

	for _, c := range t.Candidates {
		res, err := t.evaluate(c, xTrain, yTrain, xTest, yTest)
		if err != nil {
			return 0, errors.Wrapf(err, "candidate %q", c.Name)
		}
		t.Report.Add(c.Name, res.Scores.R2)
		t.Results = append(t.Results, res)
		fitted[c.Name] = res.Model

		logger.Info("candidate evaluated",
			log.CandidateKey, c.Name,
			log.HyperParamsKey, model.FormatParams(res.BestParams),
			log.CVScoreKey, res.CVScore,
			"test", res.Scores,
		)
	}

	bestName, bestScore, ok := t.Report.Best()
	if !ok {
		return 0, errors.NewValueError("ModelTrainer.Train", "no candidate produced a defined score")
	}
	logger.Info("best model selected", log.CandidateKey, bestName, log.R2ScoreKey, bestScore)

	threshold := t.MinR2
	if bestScore < threshold {
		t.discardModel()
		return bestScore, errors.NewInsufficientModelQualityError(bestName, bestScore, threshold)
	}

	var params map[string]interface{}
	for _, r := range t.Results {
		if r.Name == bestName {
			params = r.BestParams
		}
	}
	bundle := &ModelArtifact{
		Name:      bestName,
		Score:     bestScore,
		Params:    stringParams(params),
		TrainedAt: time.Now().UTC(),
		Model:     fitted[bestName],
	}
	if err := artifact.SaveObject(t.Store.ModelPath(), bundle); err != nil {
		return bestScore, err
	}
	logger.Info("model saved", log.PathKey, t.Store.ModelPath())
	return bestScore, nil
}

// discardModel removes a model.gob left by an earlier run so that it is
// never paired with a preprocessor from a later one.
func (t *ModelTrainer) discardModel() {
	if err := os.Remove(t.Store.ModelPath()); err == nil {
		log.GetLoggerWithName("trainer").Warn("removed stale model artifact", log.PathKey, t.Store.ModelPath())
	}
}

func (t *ModelTrainer) evaluate(c Candidate, xTrain, yTrain, xTest, yTest *mat.Dense) (CandidateResult, error) {
	if c.Model == nil {
		return CandidateResult{}, errors.NewValueError("ModelTrainer.Train", "candidate has no model")
	}

	gs := model_selection.NewGridSearchCV(c.Model, c.Grid)
	folds := t.CVFolds
	if folds == 0 {
		folds = 3
	}
	gs.CV = model_selection.NewKFold(folds, false, 0)
	gs.NJobs = t.NJobs
	if err := gs.Fit(xTrain, yTrain); err != nil {
		return CandidateResult{}, err
	}

	// 探索時の学習済みモデルは使わず、最良パラメータで学習し直す
	final := c.Model.Clone()
	if err := final.SetParams(gs.BestParams); err != nil {
		return CandidateResult{}, err
	}
	if err := final.Fit(xTrain, yTrain); err != nil {
		return CandidateResult{}, err
	}
	pred, err := final.Predict(xTest)
	if err != nil {
		return CandidateResult{}, err
	}
	scores, err := metrics.Evaluate(yTest, pred)
	if err != nil {
		return CandidateResult{}, err
	}
	return CandidateResult{
		Name:       c.Name,
		BestParams: gs.BestParams,
		CVScore:    gs.BestScore,
		Scores:     scores,
		Model:      final,
	}, nil
}

func stringParams(params map[string]interface{}) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = fmt.Sprint(v)
	}
	return out
}
