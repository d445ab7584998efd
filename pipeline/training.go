package pipeline

import (
	"time"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/config"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/sklearn/model_selection"
)

// TrainingResult summarises one end-to-end training run.
type TrainingResult struct {
	BestModel string
	Score     float64
	Report    *model_selection.ModelReport
	Results   []CandidateResult
	Store     artifact.Store
}

// TrainingPipeline runs ingestion, transformation and model training.
type TrainingPipeline struct {
	Ingestion      *DataIngestion
	Transformation *DataTransformation
	Trainer        *ModelTrainer
}

// NewTrainingPipeline builds the three stages from cfg. An empty
// ArtifactRoot writes to ./artifacts.
func NewTrainingPipeline(cfg config.Config) *TrainingPipeline {
	root := cfg.ArtifactRoot
	if root == "" {
		root = artifact.DirName
	}
	store := artifact.NewStore(root)

	ing := NewDataIngestion(cfg.SourcePath, store)
	ing.TargetColumn = cfg.TargetColumn
	ing.TestRatio = cfg.TestRatio
	ing.RandomSeed = cfg.RandomSeed

	tr := NewDataTransformation(store)
	tr.TargetColumn = cfg.TargetColumn

	mt := NewModelTrainer(store)
	mt.CVFolds = cfg.CVFolds
	mt.MinR2 = cfg.MinR2
	mt.NJobs = cfg.NJobs

	return &TrainingPipeline{Ingestion: ing, Transformation: tr, Trainer: mt}
}

// Run executes the stages in order and stops at the first failure. The
// returned result carries the model report whenever training was reached,
// including when the quality gate rejects the best model. Once the
// preprocessor has been rewritten, a training failure also removes the
// previous model.gob, so the artifact pair never mixes runs.
func (p *TrainingPipeline) Run() (*TrainingResult, error) {
	logger := log.GetLoggerWithName("training")
	start := time.Now()
	res := &TrainingResult{Store: p.Trainer.Store}

	trainPath, testPath, err := p.Ingestion.Ingest()
	if err != nil {
		return res, err
	}
	train, test, _, err := p.Transformation.Transform(trainPath, testPath)
	if err != nil {
		return res, err
	}
	score, err := p.Trainer.Train(train, test)
	res.Report = p.Trainer.Report
	res.Results = p.Trainer.Results
	res.Score = score
	if res.Report != nil {
		res.BestModel, _, _ = res.Report.Best()
	}
	if err != nil {
		p.Trainer.discardModel()
		return res, err
	}

	logger.Info("training pipeline finished",
		log.CandidateKey, res.BestModel,
		log.R2ScoreKey, score,
		"report", res.Report,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}
