// Package log defines standard attribute keys for pipeline operations.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so JSON logs can be filtered per concern.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "RandomForestRegressor", "ColumnTransformer"
	ModelNameKey = "model.name"

	// CandidateKey identifies a candidate in the model-selection run.
	// Examples: "Random Forest", "KNN Regressor"
	CandidateKey = "ml.candidate"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "grid_search", "ingest"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is performing the operation.
	// Examples: "ingestion", "transformation", "trainer", "predict"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ColumnsKey lists column names.
	ColumnsKey = "data.columns"

	// PathKey is a filesystem path of a dataset or artifact.
	PathKey = "artifact.path"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records R² coefficient of determination for regression.
	// Range typically [-∞, 1.0], with 1.0 being perfect prediction.
	R2ScoreKey = "metrics.r2_score"

	// CVScoreKey records the mean cross-validated score of a grid point.
	CVScoreKey = "metrics.cv_score"

	// MSEKey, RMSEKey and MAEKey record auxiliary regression metrics.
	MSEKey  = "metrics.mse"
	RMSEKey = "metrics.rmse"
	MAEKey  = "metrics.mae"
)

// Model selection
const (
	// HyperParamsKey contains model hyperparameters.
	HyperParamsKey = "model.hyperparams"

	// GridSizeKey records the number of parameter combinations searched.
	GridSizeKey = "cv.grid_size"

	// FoldsKey records the number of cross-validation folds.
	FoldsKey = "cv.folds"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// WorkersKey records the number of parallel workers.
	WorkersKey = "infra.workers"
)

// Error Context
const (
	// ErrorKey holds the error message.
	ErrorKey = "error"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute value constants for common operations.
const (
	OperationFit        = "fit"
	OperationPredict    = "predict"
	OperationTransform  = "transform"
	OperationScore      = "score"
	OperationGridSearch = "grid_search"
	OperationIngest     = "ingest"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
