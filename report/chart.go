// Package report renders the model-selection report produced by training.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/sklearn/model_selection"
)

// Chart dimensions.
const (
	ChartWidth  = 8 * vg.Inch
	ChartHeight = 5 * vg.Inch
)

// BarChart は候補ごとのテストR²を棒グラフにする。閾値が正なら水平線を引く
func BarChart(r *model_selection.ModelReport, threshold float64) (*plot.Plot, error) {
	if r == nil || r.Len() == 0 {
		return nil, errors.NewValueError("report.BarChart", "model report is empty")
	}
	names := r.Names()
	values := make(plotter.Values, len(names))
	lo := 0.0
	for i, n := range names {
		s, _ := r.Score(n)
		if math.IsNaN(s) {
			s = 0
		}
		values[i] = s
		lo = math.Min(lo, s)
	}

	p := plot.New()
	p.Title.Text = "Candidate test R2"
	p.Y.Label.Text = "R2"
	p.Y.Min = lo
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return nil, errors.Wrap(err, "build bar chart")
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(shortNames(names)...)

	if threshold > 0 {
		line, err := plotter.NewLine(plotter.XYs{
			{X: -0.5, Y: threshold},
			{X: float64(len(names)) - 0.5, Y: threshold},
		})
		if err != nil {
			return nil, errors.Wrap(err, "build threshold line")
		}
		line.Color = plotutil.Color(1)
		line.Dashes = plotutil.Dashes(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("min R2 %.2f", threshold), line)
		p.Legend.Top = true
	}
	return p, nil
}

// SaveChart writes the bar chart to path. The image format follows the
// extension (png, svg, pdf, ...).
func SaveChart(r *model_selection.ModelReport, threshold float64, path string) error {
	p, err := BarChart(r, threshold)
	if err != nil {
		return err
	}
	if err := p.Save(ChartWidth, ChartHeight, path); err != nil {
		return errors.Wrapf(err, "save chart %s", path)
	}
	return nil
}

// WriteTable writes the report as an aligned two-column table in
// insertion order. The best candidate is marked with '*'.
func WriteTable(w io.Writer, r *model_selection.ModelReport) error {
	if r == nil || r.Len() == 0 {
		return errors.NewValueError("report.WriteTable", "model report is empty")
	}
	best, _, _ := r.Best()
	width := len("model")
	for _, n := range r.Names() {
		if len(n) > width {
			width = len(n)
		}
	}
	if _, err := fmt.Fprintf(w, "  %-*s  %s\n", width, "model", "r2"); err != nil {
		return err
	}
	for _, n := range r.Names() {
		mark := " "
		if n == best {
			mark = "*"
		}
		s, _ := r.Score(n)
		if _, err := fmt.Fprintf(w, "%s %-*s  %.4f\n", mark, width, n, s); err != nil {
			return err
		}
	}
	return nil
}

// shortNames は軸ラベルが重ならないよう最初の単語だけにする
func shortNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if f := strings.Fields(n); len(f) > 0 {
			out[i] = f[0]
		}
	}
	return out
}
