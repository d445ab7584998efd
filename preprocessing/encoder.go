package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// OneHotEncoder はカテゴリ列を指示変数の列に展開する
//
// カテゴリは列ごとに辞書順で並べる。学習時に見なかった値は
// その列のブロックを全て 0 にする（幅は変わらない）。
type OneHotEncoder struct {
	model.BaseEstimator

	// Categories[j] は j 列目の学習済みカテゴリ（ソート済み）
	Categories [][]string
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

// Fit は各列のカテゴリ集合を学習する
func (e *OneHotEncoder) Fit(rows [][]string) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	c := len(rows[0])
	cats := make([][]string, c)
	for j := 0; j < c; j++ {
		seen := make(map[string]struct{})
		for _, row := range rows {
			if len(row) != c {
				return errors.NewDimensionError("OneHotEncoder.Fit", c, len(row), 1)
			}
			seen[row[j]] = struct{}{}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		cats[j] = values
	}
	e.Categories = cats
	e.SetFitted()
	return nil
}

// NOutputs は出力列の総数を返す
func (e *OneHotEncoder) NOutputs() int {
	n := 0
	for _, c := range e.Categories {
		n += len(c)
	}
	return n
}

// Transform は行を指示変数の行列に変換する
func (e *OneHotEncoder) Transform(rows [][]string) (*mat.Dense, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if len(rows) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}

	// 列ごとのオフセットと値の位置
	offsets := make([]int, len(e.Categories))
	index := make([]map[string]int, len(e.Categories))
	off := 0
	for j, cats := range e.Categories {
		offsets[j] = off
		index[j] = make(map[string]int, len(cats))
		for k, v := range cats {
			index[j][v] = k
		}
		off += len(cats)
	}

	out := mat.NewDense(len(rows), off, nil)
	for i, row := range rows {
		if len(row) != len(e.Categories) {
			return nil, errors.NewDimensionError("OneHotEncoder.Transform", len(e.Categories), len(row), 1)
		}
		for j, v := range row {
			if k, ok := index[j][v]; ok {
				out.Set(i, offsets[j]+k, 1)
			}
		}
	}
	return out, nil
}

// FeatureNames は入力列名から出力列名（name_value）を作る
func (e *OneHotEncoder) FeatureNames(inputs []string) []string {
	var names []string
	for j, cats := range e.Categories {
		for _, v := range cats {
			names = append(names, inputs[j]+"_"+v)
		}
	}
	return names
}
