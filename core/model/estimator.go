package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる（yは n×1 の列行列）
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n×1 の列行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter はハイパーパラメータを公開するモデルのインターフェース
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter はハイパーパラメータを変更できるモデルのインターフェース
type ParameterSetter interface {
	// SetParams は未知のキーや型の合わない値に対してエラーを返す
	SetParams(params map[string]interface{}) error
}

// Regressor は候補モデル全てが共有する能力セット
type Regressor interface {
	Fitter
	Predictor
	ParameterGetter
	ParameterSetter

	// Clone は同じハイパーパラメータを持つ未学習のコピーを返す
	Clone() Regressor
}
