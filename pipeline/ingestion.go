package pipeline

import (
	"os"
	"time"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/preprocessing"
	"github.com/YuminosukeSato/examscore/sklearn/model_selection"
)

// DataIngestion reads the source CSV, keeps a raw copy and writes a seeded
// train/test split under the artifact root.
type DataIngestion struct {
	SourcePath   string
	Store        artifact.Store
	TargetColumn string
	TestRatio    float64
	RandomSeed   int64
}

// NewDataIngestion はデフォルトの分割設定でDataIngestionを作成する
func NewDataIngestion(source string, store artifact.Store) *DataIngestion {
	return &DataIngestion{
		SourcePath:   source,
		Store:        store,
		TargetColumn: preprocessing.ColMathScore,
		TestRatio:    0.2,
		RandomSeed:   42,
	}
}

// ExpectedColumns are the seven feature columns followed by the target.
func (d *DataIngestion) ExpectedColumns() []string {
	return append(preprocessing.FeatureColumns(), d.TargetColumn)
}

// Ingest returns the paths of the written train and test splits.
func (d *DataIngestion) Ingest() (trainPath, testPath string, err error) {
	logger := log.GetLoggerWithName("ingestion")
	start := time.Now()

	readCtx := errors.Ctx("DataIngestion", "read")
	frame, err := dataset.ReadCSV(d.SourcePath)
	if err != nil {
		return "", "", errors.NewIngestionError(readCtx, d.SourcePath, dataset.ParseLine(err), err)
	}
	if missing := frame.Missing(d.ExpectedColumns()); len(missing) > 0 {
		return "", "", errors.NewIngestionError(readCtx, d.SourcePath, 1,
			&preprocessing.SchemaMismatch{Missing: missing})
	}
	if frame.Len() == 0 {
		return "", "", errors.NewIngestionError(readCtx, d.SourcePath, 0, errors.ErrEmptyData)
	}
	logger.Info("read source dataset",
		log.PathKey, d.SourcePath,
		log.SamplesKey, frame.Len(),
		log.ColumnsKey, frame.Columns,
	)

	writeCtx := errors.Ctx("DataIngestion", "write")
	if err := d.Store.Ensure(); err != nil {
		return "", "", errors.NewIngestionError(writeCtx, d.Store.Root, 0, err)
	}
	if err := writeFrame(d.Store.DataPath(), frame); err != nil {
		return "", "", errors.NewIngestionError(writeCtx, d.Store.DataPath(), 0, err)
	}

	trainIdx, testIdx, err := model_selection.TrainTestSplitIndices(frame.Len(), d.TestRatio, d.RandomSeed)
	if err != nil {
		return "", "", errors.NewIngestionError(errors.Ctx("DataIngestion", "split"), d.SourcePath, 0, err)
	}
	trainPath, testPath = d.Store.TrainPath(), d.Store.TestPath()
	if err := writeFrame(trainPath, frame.Take(trainIdx)); err != nil {
		return "", "", errors.NewIngestionError(writeCtx, trainPath, 0, err)
	}
	if err := writeFrame(testPath, frame.Take(testIdx)); err != nil {
		return "", "", errors.NewIngestionError(writeCtx, testPath, 0, err)
	}

	logger.Info("ingestion completed",
		"train_rows", len(trainIdx),
		"test_rows", len(testIdx),
		log.RandomSeedKey, d.RandomSeed,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return trainPath, testPath, nil
}

// writeFrame writes through a temporary file so a failed run never leaves a
// truncated split behind.
func writeFrame(path string, f *dataset.Frame) error {
	tmp := path + ".tmp"
	if err := dataset.WriteCSV(tmp, f); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
