package preprocessing

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// SchemaMismatch describes how a frame's columns differ from the fitted manifest.
type SchemaMismatch struct {
	Missing    []string
	Unexpected []string
}

func (m *SchemaMismatch) Error() string {
	var parts []string
	if len(m.Missing) > 0 {
		parts = append(parts, "missing columns ["+strings.Join(m.Missing, ", ")+"]")
	}
	if len(m.Unexpected) > 0 {
		parts = append(parts, "unexpected columns ["+strings.Join(m.Unexpected, ", ")+"]")
	}
	return "schema mismatch: " + strings.Join(parts, "; ")
}

// ColumnTransformer は数値列とカテゴリ列を別々のサブパイプラインで変換し、
// 数値列、カテゴリ列の順に連結した行列を返す
//
// 数値: median SimpleImputer -> StandardScaler
// カテゴリ: 小文字化 -> most_frequent StringImputer -> OneHotEncoder -> StandardScaler(with_mean=false)
type ColumnTransformer struct {
	model.BaseEstimator

	NumericColumns     []string
	CategoricalColumns []string

	// InputColumns はFit時に確定した入力列（スキーママニフェスト）
	InputColumns []string

	NumImputer *SimpleImputer
	NumScaler  *StandardScaler
	CatImputer *StringImputer
	Encoder    *OneHotEncoder
	CatScaler  *StandardScaler
}

// NewColumnTransformer は新しいColumnTransformerを作成する
func NewColumnTransformer(numeric, categorical []string) *ColumnTransformer {
	return &ColumnTransformer{
		NumericColumns:     append([]string(nil), numeric...),
		CategoricalColumns: append([]string(nil), categorical...),
	}
}

// DeclaredColumns returns the numeric then categorical input columns.
func (t *ColumnTransformer) DeclaredColumns() []string {
	cols := make([]string, 0, len(t.NumericColumns)+len(t.CategoricalColumns))
	cols = append(cols, t.NumericColumns...)
	return append(cols, t.CategoricalColumns...)
}

// Fit は全てのサブパイプラインを学習する。再度呼ぶと学習済みの値は全て置き換わる
func (t *ColumnTransformer) Fit(frame *dataset.Frame) error {
	ctx := errors.Ctx("ColumnTransformer", "fit")
	if frame == nil || frame.Len() == 0 {
		return errors.NewTransformationError(ctx, "", errors.ErrEmptyData)
	}
	if missing := frame.Missing(t.DeclaredColumns()); len(missing) > 0 {
		return errors.NewTransformationError(ctx, missing[0], &SchemaMismatch{Missing: missing})
	}

	// 全て新しいインスタンスにする（部分的な再学習を残さない）
	numImputer := NewSimpleImputer(StrategyMedian)
	numScaler := NewStandardScaler(true, true)
	catImputer := NewStringImputer(StrategyMostFrequent)
	encoder := NewOneHotEncoder()
	catScaler := NewStandardScaler(false, true)

	if len(t.NumericColumns) > 0 {
		num, err := numericMatrix(ctx, frame, t.NumericColumns)
		if err != nil {
			return err
		}
		imputed, err := numImputer.FitTransform(num)
		if err != nil {
			return errors.NewTransformationError(ctx, "", err)
		}
		if err := numScaler.Fit(imputed); err != nil {
			return errors.NewTransformationError(ctx, "", err)
		}
	}

	if len(t.CategoricalColumns) > 0 {
		cat, err := categoricalRows(frame, t.CategoricalColumns)
		if err != nil {
			return errors.NewTransformationError(ctx, "", err)
		}
		if err := catImputer.Fit(cat); err != nil {
			return errors.NewTransformationError(ctx, "", err)
		}
		filled, err := catImputer.Transform(cat)
		if err != nil {
			return errors.NewTransformationError(ctx, "", err)
		}
		onehot, err := fitTransformEncoder(encoder, filled)
		if err != nil {
			return errors.NewTransformationError(ctx, "", err)
		}
		if err := catScaler.Fit(onehot); err != nil {
			return errors.NewTransformationError(ctx, "", err)
		}
	}

	t.InputColumns = t.DeclaredColumns()
	t.NumImputer, t.NumScaler = numImputer, numScaler
	t.CatImputer, t.Encoder, t.CatScaler = catImputer, encoder, catScaler
	t.SetFitted()
	return nil
}

// FitTransform は学習した上で同じフレームを変換する
func (t *ColumnTransformer) FitTransform(frame *dataset.Frame) (*mat.Dense, error) {
	if err := t.Fit(frame); err != nil {
		return nil, err
	}
	return t.Transform(frame)
}

func fitTransformEncoder(e *OneHotEncoder, rows [][]string) (*mat.Dense, error) {
	if err := e.Fit(rows); err != nil {
		return nil, err
	}
	return e.Transform(rows)
}

// ValidateSchema compares columns with the manifest recorded at Fit time.
// Column order may differ; columns are matched by name.
func (t *ColumnTransformer) ValidateSchema(columns []string) *SchemaMismatch {
	want := make(map[string]bool, len(t.InputColumns))
	for _, c := range t.InputColumns {
		want[c] = true
	}
	got := make(map[string]bool, len(columns))
	var m SchemaMismatch
	for _, c := range columns {
		got[c] = true
		if !want[c] {
			m.Unexpected = append(m.Unexpected, c)
		}
	}
	for _, c := range t.InputColumns {
		if !got[c] {
			m.Missing = append(m.Missing, c)
		}
	}
	if len(m.Missing) == 0 && len(m.Unexpected) == 0 {
		return nil
	}
	return &m
}

// Transform は学習済みの統計量だけを使ってフレームを変換する
func (t *ColumnTransformer) Transform(frame *dataset.Frame) (*mat.Dense, error) {
	ctx := errors.Ctx("ColumnTransformer", "transform")
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("ColumnTransformer", "Transform")
	}
	if frame == nil || frame.Len() == 0 {
		return nil, errors.NewTransformationError(ctx, "", errors.ErrEmptyData)
	}
	if m := t.ValidateSchema(frame.Columns); m != nil {
		return nil, errors.WithStack(m)
	}

	n := frame.Len()
	var blocks []mat.Matrix

	if len(t.NumericColumns) > 0 {
		num, err := numericMatrix(ctx, frame, t.NumericColumns)
		if err != nil {
			return nil, err
		}
		imputed, err := t.NumImputer.Transform(num)
		if err != nil {
			return nil, errors.NewTransformationError(ctx, "", err)
		}
		scaled, err := t.NumScaler.Transform(imputed)
		if err != nil {
			return nil, errors.NewTransformationError(ctx, "", err)
		}
		blocks = append(blocks, scaled)
	}

	if len(t.CategoricalColumns) > 0 {
		cat, err := categoricalRows(frame, t.CategoricalColumns)
		if err != nil {
			return nil, errors.NewTransformationError(ctx, "", err)
		}
		filled, err := t.CatImputer.Transform(cat)
		if err != nil {
			return nil, errors.NewTransformationError(ctx, "", err)
		}
		onehot, err := t.Encoder.Transform(filled)
		if err != nil {
			return nil, errors.NewTransformationError(ctx, "", err)
		}
		scaled, err := t.CatScaler.Transform(onehot)
		if err != nil {
			return nil, errors.NewTransformationError(ctx, "", err)
		}
		blocks = append(blocks, scaled)
	}

	width := 0
	for _, b := range blocks {
		_, c := b.Dims()
		width += c
	}
	out := mat.NewDense(n, width, nil)
	off := 0
	for _, b := range blocks {
		_, c := b.Dims()
		out.Slice(0, n, off, off+c).(*mat.Dense).Copy(b)
		off += c
	}
	return out, nil
}

// FeatureNamesOut returns the output column names: num__<col> then cat__<col>_<value>.
func (t *ColumnTransformer) FeatureNamesOut() ([]string, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("ColumnTransformer", "FeatureNamesOut")
	}
	names := make([]string, 0, len(t.NumericColumns)+t.Encoder.NOutputs())
	for _, c := range t.NumericColumns {
		names = append(names, "num__"+c)
	}
	for _, c := range t.Encoder.FeatureNames(t.CategoricalColumns) {
		names = append(names, "cat__"+c)
	}
	return names, nil
}

// String returns a short description of the transformer.
func (t *ColumnTransformer) String() string {
	return fmt.Sprintf("ColumnTransformer(num=%v, cat=%v, fitted=%t)", t.NumericColumns, t.CategoricalColumns, t.IsFitted())
}

func numericMatrix(ctx errors.OpContext, frame *dataset.Frame, columns []string) (*mat.Dense, error) {
	out := mat.NewDense(frame.Len(), len(columns), nil)
	for j, name := range columns {
		values, err := frame.Floats(name)
		if err != nil {
			return nil, errors.NewTransformationError(ctx, name, err)
		}
		for i, v := range values {
			if math.IsInf(v, 0) {
				return nil, errors.NewTransformationError(ctx, name, errors.NewNumericalInstabilityError(ctx.String(), []float64{v}, 0))
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// categoricalRows selects the categorical columns and normalises case and surrounding space.
func categoricalRows(frame *dataset.Frame, columns []string) ([][]string, error) {
	sel, err := frame.Select(columns...)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(sel.Rows))
	for i, row := range sel.Rows {
		norm := make([]string, len(row))
		for j, v := range row {
			norm[j] = NormalizeCategory(v)
		}
		rows[i] = norm
	}
	return rows, nil
}

// NormalizeCategory lower-cases and trims a categorical value.
func NormalizeCategory(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
