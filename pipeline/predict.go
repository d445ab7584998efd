package pipeline

import (
	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/preprocessing"
)

// PredictPipeline serves point predictions from the persisted artifacts.
// It holds no fitted state and is safe for concurrent use.
type PredictPipeline struct {
	Locator *artifact.Locator
}

// NewPredictPipeline はPredictPipelineを作成する
func NewPredictPipeline(locator *artifact.Locator) *PredictPipeline {
	return &PredictPipeline{Locator: locator}
}

// Loaded is the artifact pair read for one prediction.
type Loaded struct {
	Store       artifact.Store
	Transformer *preprocessing.ColumnTransformer
	Model       *ModelArtifact
}

// Load locates and decodes the transformer and the model bundle.
func (p *PredictPipeline) Load() (*Loaded, error) {
	if p.Locator == nil {
		return nil, errors.NewValueError("PredictPipeline.Load", "no artifact locator")
	}
	store, err := p.Locator.Locate(artifact.PreprocessorFile, artifact.ModelFile)
	if err != nil {
		return nil, err
	}
	var ct preprocessing.ColumnTransformer
	if err := store.Load(artifact.PreprocessorFile, &ct); err != nil {
		return nil, err
	}
	var bundle ModelArtifact
	if err := store.Load(artifact.ModelFile, &bundle); err != nil {
		return nil, err
	}
	return &Loaded{Store: store, Transformer: &ct, Model: &bundle}, nil
}

// Predict returns the predicted math score for one record.
func (p *PredictPipeline) Predict(rec Record) (float64, error) {
	loaded, err := p.Load()
	if err != nil {
		return 0, err
	}
	frame, err := RecordsFrame(loaded.Transformer.InputColumns, rec)
	if err != nil {
		return 0, err
	}
	preds, err := loaded.predict(frame)
	if err != nil {
		return 0, err
	}
	return preds[0], nil
}

// PredictFrame predicts every row of a raw feature frame. Its columns must
// match the transformer's manifest by name.
func (p *PredictPipeline) PredictFrame(frame *dataset.Frame) ([]float64, error) {
	loaded, err := p.Load()
	if err != nil {
		return nil, err
	}
	return loaded.predict(frame)
}

func (l *Loaded) predict(frame *dataset.Frame) ([]float64, error) {
	if m := l.Transformer.ValidateSchema(frame.Columns); m != nil {
		return nil, errors.NewPredictionInputError("columns", frame.Columns, "does not match the training schema", m)
	}
	X, err := l.Transformer.Transform(frame)
	if err != nil {
		var cell *dataset.CellError
		if errors.As(err, &cell) {
			return nil, errors.NewPredictionInputError(cell.Column, cell.Value, cell.Reason, err)
		}
		return nil, err
	}
	pred, err := l.Model.Predict(X)
	if err != nil {
		return nil, err
	}
	r, _ := pred.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = pred.At(i, 0)
	}

	log.GetLoggerWithName("predict").Debug("prediction served",
		log.ModelNameKey, l.Model.Name,
		log.SamplesKey, r,
		log.PathKey, l.Store.Root,
	)
	return out, nil
}
