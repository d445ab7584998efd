package model_selection

import (
	"math"

	"github.com/rs/zerolog"
)

// ModelReport records held-out scores per candidate in insertion order.
type ModelReport struct {
	names  []string
	scores map[string]float64
}

// NewModelReport は空のレポートを作成する
func NewModelReport() *ModelReport {
	return &ModelReport{scores: make(map[string]float64)}
}

// Add records a score. Re-adding a name overwrites its score and keeps its position.
func (r *ModelReport) Add(name string, score float64) {
	if _, ok := r.scores[name]; !ok {
		r.names = append(r.names, name)
	}
	r.scores[name] = score
}

// Names は挿入順の候補名を返す
func (r *ModelReport) Names() []string {
	return append([]string(nil), r.names...)
}

// Score は候補のスコアを返す
func (r *ModelReport) Score(name string) (float64, bool) {
	s, ok := r.scores[name]
	return s, ok
}

// Len は記録された候補数を返す
func (r *ModelReport) Len() int {
	return len(r.names)
}

// Best returns the candidate with the strictly highest score; ties keep the
// earliest inserted. NaN scores never win.
func (r *ModelReport) Best() (string, float64, bool) {
	best, bestScore, found := "", math.Inf(-1), false
	for _, name := range r.names {
		s := r.scores[name]
		if math.IsNaN(s) {
			continue
		}
		if !found || s > bestScore {
			best, bestScore, found = name, s, true
		}
	}
	return best, bestScore, found
}

// MarshalZerologObject logs the report as name -> score.
func (r *ModelReport) MarshalZerologObject(e *zerolog.Event) {
	for _, name := range r.names {
		e.Float64(name, r.scores[name])
	}
}
