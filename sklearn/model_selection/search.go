package model_selection

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/core/parallel"
	"github.com/YuminosukeSato/examscore/metrics"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
)

// CVResult は1つのパラメータ組み合わせの交差検証結果
type CVResult struct {
	Params     map[string]interface{}
	FoldScores []float64
	MeanScore  float64
}

// GridSearchCV evaluates every combination of a ParamGrid with k-fold
// cross-validation and R² scoring.
//
// (combination, fold) jobs run in parallel, each on its own clone of
// Estimator; scores are gathered by job index so the selected combination
// never depends on scheduling. Ties keep the first combination in expansion
// order.
type GridSearchCV struct {
	Estimator model.Regressor
	ParamGrid ParamGrid
	CV        *KFold
	NJobs     int

	// Refit fits a clone with the best parameters on the full data after the search.
	Refit bool

	Results       []CVResult
	BestIndex     int
	BestParams    map[string]interface{}
	BestScore     float64
	BestEstimator model.Regressor
}

// NewGridSearchCV は3分割・シャッフルなしのGridSearchCVを作成する
func NewGridSearchCV(estimator model.Regressor, grid ParamGrid) *GridSearchCV {
	return &GridSearchCV{
		Estimator: estimator,
		ParamGrid: grid,
		CV:        NewKFold(3, false, 0),
		BestIndex: -1,
	}
}

// Fit runs the search on X, y.
func (g *GridSearchCV) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GridSearchCV.Fit")

	if g.Estimator == nil {
		return errors.NewValueError("GridSearchCV.Fit", "estimator is nil")
	}
	rows, target, err := model.CheckFitInput("GridSearchCV.Fit", X, y)
	if err != nil {
		return err
	}
	combos, err := g.ParamGrid.Expand()
	if err != nil {
		return err
	}
	cv := g.CV
	if cv == nil {
		cv = NewKFold(3, false, 0)
	}
	folds, err := cv.Split(len(rows))
	if err != nil {
		return err
	}

	logger := log.GetLoggerWithName("GridSearchCV")
	workers := parallel.Resolve(g.NJobs)
	start := time.Now()

	nFolds := len(folds)
	scores := make([]float64, len(combos)*nFolds)
	err = parallel.Run(len(scores), workers, func(job int) error {
		params := combos[job/nFolds]
		fold := folds[job%nFolds]

		est := g.Estimator.Clone()
		if err := est.SetParams(params); err != nil {
			return err
		}
		xTr, yTr := model.SelectRows(rows, target, fold.TrainIndices)
		xTe, yTe := model.SelectRows(rows, target, fold.TestIndices)
		if err := est.Fit(model.DenseFromRows(xTr), model.ColumnMatrix(yTr)); err != nil {
			return errors.Wrapf(err, "fit %s", model.FormatParams(params))
		}
		pred, err := est.Predict(model.DenseFromRows(xTe))
		if err != nil {
			return errors.Wrapf(err, "predict %s", model.FormatParams(params))
		}
		r2, err := metrics.R2ScoreMatrix(model.ColumnMatrix(yTe), pred)
		if err != nil {
			return err
		}
		scores[job] = r2
		return nil
	})
	if err != nil {
		return err
	}

	results := make([]CVResult, len(combos))
	best, bestScore := -1, math.Inf(-1)
	for c, params := range combos {
		fs := scores[c*nFolds : (c+1)*nFolds]
		mean := stat.Mean(fs, nil)
		results[c] = CVResult{Params: params, FoldScores: append([]float64(nil), fs...), MeanScore: mean}
		if !math.IsNaN(mean) && (best < 0 || mean > bestScore) {
			best, bestScore = c, mean
		}
	}
	if best < 0 {
		return errors.NewValueError("GridSearchCV.Fit", "every parameter combination produced an undefined score")
	}

	g.Results = results
	g.BestIndex = best
	g.BestParams = model.CopyParams(combos[best])
	g.BestScore = bestScore
	g.BestEstimator = nil

	logger.Debug("grid search finished",
		log.GridSizeKey, len(combos),
		log.FoldsKey, nFolds,
		log.WorkersKey, workers,
		log.HyperParamsKey, model.FormatParams(g.BestParams),
		log.CVScoreKey, bestScore,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	if g.Refit {
		est := g.Estimator.Clone()
		if err := est.SetParams(g.BestParams); err != nil {
			return err
		}
		if err := est.Fit(X, y); err != nil {
			return err
		}
		g.BestEstimator = est
	}
	return nil
}

// Predict uses the refitted best estimator.
func (g *GridSearchCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if g.BestEstimator == nil {
		return nil, errors.NewNotFittedError("GridSearchCV", "Predict")
	}
	return g.BestEstimator.Predict(X)
}
