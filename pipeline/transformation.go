package pipeline

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/preprocessing"
)

// DataTransformation fits the feature transformer on the training split and
// produces numeric matrices with the target appended as the last column.
type DataTransformation struct {
	Store        artifact.Store
	TargetColumn string

	// NewTransformer builds the unfitted transformer; defaults to
	// preprocessing.BuildStudentTransformer.
	NewTransformer func() *preprocessing.ColumnTransformer
}

// NewDataTransformation はDataTransformationを作成する
func NewDataTransformation(store artifact.Store) *DataTransformation {
	return &DataTransformation{
		Store:          store,
		TargetColumn:   preprocessing.ColMathScore,
		NewTransformer: preprocessing.BuildStudentTransformer,
	}
}

// Transform loads both splits, fits on train only, transforms both and
// persists the fitted transformer. It returns the train and test matrices and
// the transformer's artifact path.
func (d *DataTransformation) Transform(trainPath, testPath string) (train, test *mat.Dense, preprocessorPath string, err error) {
	logger := log.GetLoggerWithName("transformation")
	start := time.Now()

	build := d.NewTransformer
	if build == nil {
		build = preprocessing.BuildStudentTransformer
	}
	ct := build()
	columns := ct.DeclaredColumns()

	trainX, trainY, err := d.load(trainPath, columns)
	if err != nil {
		return nil, nil, "", err
	}
	testX, testY, err := d.load(testPath, columns)
	if err != nil {
		return nil, nil, "", err
	}

	ctx := errors.Ctx("DataTransformation", "fit_transform")
	trainFeatures, err := ct.FitTransform(trainX)
	if err != nil {
		return nil, nil, "", errors.NewTransformationError(ctx, "", err)
	}
	testFeatures, err := ct.Transform(testX)
	if err != nil {
		return nil, nil, "", errors.NewTransformationError(errors.Ctx("DataTransformation", "transform"), "", err)
	}

	preprocessorPath = d.Store.PreprocessorPath()
	if err := artifact.SaveObject(preprocessorPath, ct); err != nil {
		return nil, nil, "", errors.NewTransformationError(errors.Ctx("DataTransformation", "save"), "", err)
	}

	names, _ := ct.FeatureNamesOut()
	logger.Info("feature transformer fitted",
		log.ModelNameKey, ct.String(),
		log.FeaturesKey, len(names),
		log.SamplesKey, trainX.Len(),
		log.PathKey, preprocessorPath,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return appendTarget(trainFeatures, trainY), appendTarget(testFeatures, testY), preprocessorPath, nil
}

// load reads a split and separates the feature columns from the target.
// Columns other than the features and the target are ignored.
func (d *DataTransformation) load(path string, columns []string) (*dataset.Frame, []float64, error) {
	ctx := errors.Ctx("DataTransformation", "load")
	frame, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, nil, errors.NewTransformationError(ctx, "", errors.Wrapf(err, "read %s", path))
	}
	if frame.Index(d.TargetColumn) < 0 {
		return nil, nil, errors.NewTransformationError(ctx, d.TargetColumn,
			errors.Newf("target column missing from %s", path))
	}
	target, err := frame.Floats(d.TargetColumn)
	if err != nil {
		return nil, nil, errors.NewTransformationError(ctx, d.TargetColumn, err)
	}
	for i, v := range target {
		if math.IsNaN(v) {
			return nil, nil, errors.NewTransformationError(ctx, d.TargetColumn,
				errors.Newf("missing target value in %s row %d", path, i+1))
		}
	}

	if missing := frame.Missing(columns); len(missing) > 0 {
		return nil, nil, errors.NewTransformationError(ctx, missing[0],
			&preprocessing.SchemaMismatch{Missing: missing})
	}
	features, err := frame.Select(columns...)
	if err != nil {
		return nil, nil, errors.NewTransformationError(ctx, "", err)
	}
	return features, target, nil
}

func appendTarget(X *mat.Dense, y []float64) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c+1, nil)
	out.Slice(0, r, 0, c).(*mat.Dense).Copy(X)
	out.SetCol(c, y)
	return out
}
