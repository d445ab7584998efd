package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	学習・推論パイプラインのエラー型
//
// ===========================================================================

// OpContext は失敗が発生したコンポーネントと操作を表す
type OpContext struct {
	Component string
	Operation string
}

// Ctx はOpContextを作成する
func Ctx(component, operation string) OpContext {
	return OpContext{Component: component, Operation: operation}
}

func (c OpContext) String() string {
	if c.Operation == "" {
		return c.Component
	}
	return c.Component + "." + c.Operation
}

func (c OpContext) marshal(e *zerolog.Event) {
	e.Str("component", c.Component).Str("operation", c.Operation)
}

// IngestionError はソースデータの読み込み・分割・保存に失敗した場合のエラーです。
type IngestionError struct {
	OpContext
	Path string
	Line int // 0 when unknown
	Err  error
}

func (e *IngestionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "examscore: %s", e.OpContext)
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&b, " line %d", e.Line)
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *IngestionError) Unwrap() error { return e.Err }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *IngestionError) MarshalZerologObject(event *zerolog.Event) {
	e.marshal(event)
	event.Str("path", e.Path).Int("line", e.Line).Str("type", "IngestionError")
}

// NewIngestionError は新しいIngestionErrorを作成し、スタックトレースを付与します。
func NewIngestionError(ctx OpContext, path string, line int, err error) error {
	return errors.WithStack(&IngestionError{OpContext: ctx, Path: path, Line: line, Err: err})
}

// TransformationError は特徴量変換の学習・適用・保存に失敗した場合のエラーです。
type TransformationError struct {
	OpContext
	Column string
	Err    error
}

func (e *TransformationError) Error() string {
	msg := fmt.Sprintf("examscore: %s", e.OpContext)
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *TransformationError) Unwrap() error { return e.Err }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *TransformationError) MarshalZerologObject(event *zerolog.Event) {
	e.marshal(event)
	event.Str("column", e.Column).Str("type", "TransformationError")
}

// NewTransformationError は新しいTransformationErrorを作成し、スタックトレースを付与します。
func NewTransformationError(ctx OpContext, column string, err error) error {
	return errors.WithStack(&TransformationError{OpContext: ctx, Column: column, Err: err})
}

// InsufficientModelQualityError は最良の候補モデルでも合格基準に届かない場合のエラーです。
type InsufficientModelQualityError struct {
	BestModel string
	BestScore float64
	Threshold float64
}

func (e *InsufficientModelQualityError) Error() string {
	return fmt.Sprintf("examscore: no good model found: best candidate %q scored R2=%.4f, below threshold %.2f",
		e.BestModel, e.BestScore, e.Threshold)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InsufficientModelQualityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("best_model", e.BestModel).
		Float64("best_score", e.BestScore).
		Float64("threshold", e.Threshold).
		Str("type", "InsufficientModelQualityError")
}

// NewInsufficientModelQualityError は新しいInsufficientModelQualityErrorを作成します。
func NewInsufficientModelQualityError(best string, score, threshold float64) error {
	return errors.WithStack(&InsufficientModelQualityError{BestModel: best, BestScore: score, Threshold: threshold})
}

// ArtifactNotFoundError は永続化済みの成果物がどの候補パスにも存在しない場合のエラーです。
type ArtifactNotFoundError struct {
	Artifact string
	Searched []string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("examscore: artifact %q not found; searched: [%s]", e.Artifact, strings.Join(e.Searched, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ArtifactNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("artifact", e.Artifact).
		Strs("searched", e.Searched).
		Str("type", "ArtifactNotFoundError")
}

// NewArtifactNotFoundError は新しいArtifactNotFoundErrorを作成し、スタックトレースを付与します。
func NewArtifactNotFoundError(artifact string, searched []string) error {
	return errors.WithStack(&ArtifactNotFoundError{Artifact: artifact, Searched: searched})
}

// PredictionInputError は推論入力のレコードが不正な場合のエラーです。
type PredictionInputError struct {
	Field  string
	Value  interface{}
	Reason string
	Err    error
}

func (e *PredictionInputError) Error() string {
	msg := "examscore: invalid prediction input"
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (got: %v)", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *PredictionInputError) Unwrap() error { return e.Err }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PredictionInputError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("field", e.Field).
		Interface("value", e.Value).
		Str("reason", e.Reason).
		Str("type", "PredictionInputError")
}

// NewPredictionInputError は新しいPredictionInputErrorを作成し、スタックトレースを付与します。
func NewPredictionInputError(field string, value interface{}, reason string, err error) error {
	return errors.WithStack(&PredictionInputError{Field: field, Value: value, Reason: reason, Err: err})
}
