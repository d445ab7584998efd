// Package pipeline wires the offline training run and the online prediction
// path for student exam scores.
//
// Training runs DataIngestion, DataTransformation and ModelTrainer in order
// and leaves two artifacts under the artifact root: the fitted
// preprocessing.ColumnTransformer (preprocessor.gob) and the winning model
// bundle (model.gob). PredictPipeline loads both on every call, so a retrain
// is picked up without restarting the server.
package pipeline
