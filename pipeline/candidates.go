package pipeline

import (
	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/sklearn/catboost"
	"github.com/YuminosukeSato/examscore/sklearn/ensemble"
	"github.com/YuminosukeSato/examscore/sklearn/model_selection"
	"github.com/YuminosukeSato/examscore/sklearn/neighbors"
	"github.com/YuminosukeSato/examscore/sklearn/tree"
	"github.com/YuminosukeSato/examscore/sklearn/xgboost"
)

// Candidate is one model family in the selection run. A nil Grid means the
// model is cross-validated with its defaults only.
type Candidate struct {
	Name  string
	Model model.Regressor
	Grid  model_selection.ParamGrid
}

// DefaultCandidates returns the seven candidate families in tie-break order.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{
			Name:  "Random Forest",
			Model: ensemble.NewRandomForestRegressor(),
			Grid:  model_selection.ParamGrid{"n_estimators": {64, 128, 256}},
		},
		{
			Name:  "Decision Tree",
			Model: tree.NewDecisionTreeRegressor(),
			Grid:  model_selection.ParamGrid{"criterion": {tree.CriterionSquaredError, tree.CriterionFriedmanMSE}},
		},
		{
			Name:  "Gradient Boosting",
			Model: ensemble.NewGradientBoostingRegressor(),
			Grid: model_selection.ParamGrid{
				"learning_rate": {0.1, 0.05},
				"n_estimators":  {64, 128},
			},
		},
		{
			Name:  "KNN Regressor",
			Model: neighbors.NewKNeighborsRegressor(),
			Grid:  model_selection.ParamGrid{"n_neighbors": {3, 5, 7}},
		},
		{
			Name:  "XGBRegressor",
			Model: xgboost.NewXGBRegressor(),
			Grid: model_selection.ParamGrid{
				"learning_rate": {0.1, 0.05},
				"n_estimators":  {64, 128},
			},
		},
		{
			Name:  "CatBoosting Regressor",
			Model: catboost.NewCatBoostRegressor(),
			Grid: model_selection.ParamGrid{
				"depth":         {6, 8},
				"iterations":    {50, 100},
				"learning_rate": {0.05, 0.1},
			},
		},
		{
			Name:  "AdaBoost Regressor",
			Model: ensemble.NewAdaBoostRegressor(),
			Grid: model_selection.ParamGrid{
				"learning_rate": {0.1, 0.05},
				"n_estimators":  {64, 128},
			},
		},
	}
}
