package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Imputation strategies.
const (
	StrategyMean         = "mean"
	StrategyMedian       = "median"
	StrategyMostFrequent = "most_frequent"
	StrategyConstant     = "constant"
)

// SimpleImputer は数値列の欠損値（NaN）を列ごとの統計量で埋める
type SimpleImputer struct {
	model.BaseEstimator

	// Strategy は mean, median, most_frequent, constant のいずれか
	Strategy string

	// FillValue は constant 戦略で使う値
	FillValue float64

	// Statistics は学習した列ごとの補完値
	Statistics []float64

	NFeatures int
}

// NewSimpleImputer は新しいSimpleImputerを作成する
func NewSimpleImputer(strategy string) *SimpleImputer {
	return &SimpleImputer{Strategy: strategy}
}

// Fit は列ごとの補完値を学習する。全て欠損の列は constant 以外ではエラー
func (s *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	stats := make([]float64, c)
	for j := 0; j < c; j++ {
		present := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		if s.Strategy == StrategyConstant {
			stats[j] = s.FillValue
			continue
		}
		if len(present) == 0 {
			return errors.NewValueError("SimpleImputer.Fit", fmt.Sprintf("column %d has no observed values", j))
		}
		switch s.Strategy {
		case StrategyMean:
			stats[j] = stat.Mean(present, nil)
		case StrategyMedian:
			stats[j] = median(present)
		case StrategyMostFrequent:
			stats[j] = modeFloat(present)
		default:
			return errors.NewValidationError("strategy", "unknown imputation strategy", s.Strategy)
		}
	}

	s.Statistics = stats
	s.NFeatures = c
	s.SetFitted()
	return nil
}

// Transform は NaN を学習済みの補完値で置き換える
func (s *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}
	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", s.NFeatures, c, 1)
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = s.Statistics[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// FitTransform は学習と変換を同時に実行する
func (s *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// median averages the two middle values for an even count.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func modeFloat(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := 0.0, -1
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// StringImputer はカテゴリ列の欠損値を埋める
//
// 欠損の判定は dataset.IsMissing に従う。most_frequent の同数は辞書順で最小の値を選ぶ。
type StringImputer struct {
	model.BaseEstimator

	Strategy   string
	FillValue  string
	Statistics []string
	NFeatures  int
}

// NewStringImputer は新しいStringImputerを作成する
func NewStringImputer(strategy string) *StringImputer {
	return &StringImputer{Strategy: strategy}
}

// Fit は列ごとの補完値を学習する
func (s *StringImputer) Fit(rows [][]string) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return errors.NewModelError("StringImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	c := len(rows[0])
	stats := make([]string, c)
	for j := 0; j < c; j++ {
		switch s.Strategy {
		case StrategyConstant:
			stats[j] = s.FillValue
		case StrategyMostFrequent:
			counts := make(map[string]int)
			for _, row := range rows {
				if !dataset.IsMissing(row[j]) {
					counts[row[j]]++
				}
			}
			if len(counts) == 0 {
				return errors.NewValueError("StringImputer.Fit", fmt.Sprintf("column %d has no observed values", j))
			}
			best, bestCount := "", -1
			for v, n := range counts {
				if n > bestCount || (n == bestCount && v < best) {
					best, bestCount = v, n
				}
			}
			stats[j] = best
		default:
			return errors.NewValidationError("strategy", "unknown imputation strategy", s.Strategy)
		}
	}
	s.Statistics = stats
	s.NFeatures = c
	s.SetFitted()
	return nil
}

// Transform は欠損セルを補完値に置き換えた新しい行を返す
func (s *StringImputer) Transform(rows [][]string) ([][]string, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StringImputer", "Transform")
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) != s.NFeatures {
			return nil, errors.NewDimensionError("StringImputer.Transform", s.NFeatures, len(row), 1)
		}
		filled := make([]string, len(row))
		for j, v := range row {
			if dataset.IsMissing(v) {
				v = s.Statistics[j]
			}
			filled[j] = v
		}
		out[i] = filled
	}
	return out, nil
}
