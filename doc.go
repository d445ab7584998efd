// Package examscore predicts a student's math exam score from their
// demographic background and their reading and writing scores.
//
// The module is an end-to-end regression pipeline: CSV ingestion, a
// persisted column transformer, grid-searched model selection across seven
// regressor families, and inference behind an HTML form.
//
// # Training
//
// Run the trainer from the project root. It reads notebook/data/stud.csv
// and writes everything under artifacts/:
//
//	go run ./cmd/train
//	go run ./cmd/train -source data/stud.csv -report-chart report.png
//
// Artifacts written:
//
//	artifacts/data.csv          raw copy of the source
//	artifacts/train.csv         80% split (seed 42)
//	artifacts/test.csv          20% split
//	artifacts/preprocessor.gob  fitted ColumnTransformer
//	artifacts/model.gob         best model with its name, score and params
//
// Training fails with InsufficientModelQualityError when the best
// candidate's held-out R² is below 0.6. No model is persisted in that case.
//
// # Serving
//
//	go run ./cmd/server -addr :8080
//
// Routes: / (index), /predictdata (form), /debug (artifact discovery),
// /healthz (liveness).
//
// # Library use
//
//	loc, err := artifact.NewLocator("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p := pipeline.NewPredictPipeline(loc)
//	score, err := p.Predict(pipeline.Record{
//	    Gender:                   "female",
//	    RaceEthnicity:            "group B",
//	    ParentalLevelOfEducation: "bachelor's degree",
//	    Lunch:                    "standard",
//	    TestPreparationCourse:    "none",
//	    ReadingScore:             72,
//	    WritingScore:             74,
//	})
//
// # Packages
//
//   - dataset: string-celled frames and their CSV codec
//   - preprocessing: imputers, one-hot encoder, scaler, ColumnTransformer
//   - sklearn/tree, sklearn/ensemble, sklearn/neighbors, sklearn/xgboost,
//     sklearn/catboost: the candidate regressors
//   - sklearn/model_selection: KFold, train/test split, GridSearchCV, ModelReport
//   - metrics: R², MSE, RMSE, MAE
//   - pipeline: ingestion, transformation, trainer, prediction
//   - artifact: artifact store and root discovery
//   - config: defaults, HCL file and flags
//   - report: score table and bar chart
//   - server: HTTP front end
//   - core/model, core/parallel: estimator plumbing and worker pools
//   - pkg/errors, pkg/log: error taxonomy and zerolog logging
//
// # Configuration
//
// Both commands accept -config with an HCL file:
//
//	source_path   = "data/stud.csv"
//	min_r2        = 0.6
//	artifact_root = env("EXAMSCORE_ARTIFACTS")
//
//	log {
//	  level  = "debug"
//	  format = "text"
//	}
//
// Flags given explicitly override the file.
//
// # License
//
// examscore is released under the MIT License.
package examscore
