package pipeline

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/examscore/core/model"
	"github.com/YuminosukeSato/examscore/pkg/errors"
)

const studentHeader = "gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,math_score,reading_score,writing_score"

var educationLevels = []string{
	"some high school", "high school", "some college",
	"associate's degree", "bachelor's degree", "master's degree",
}

// studentCSV generates n deterministic rows whose math score is mostly
// explained by the reading and writing scores.
func studentCSV(n int) string {
	var b strings.Builder
	b.WriteString(studentHeader + "\n")
	for i := 0; i < n; i++ {
		gender := "female"
		if i%2 == 1 {
			gender = "male"
		}
		if i%7 == 0 {
			gender = strings.ToUpper(gender[:1]) + gender[1:]
		}
		race := fmt.Sprintf("group %c", 'A'+rune(i%5))
		edu := educationLevels[i%6]
		lunch, lunchEffect := "standard", 2.0
		if i%3 == 0 {
			lunch, lunchEffect = "free/reduced", -2.0
		}
		prep := "none"
		if i%4 == 0 {
			prep = "completed"
		}
		reading := 40 + float64((i*37)%60)
		writing := reading + float64((i*13)%11-5)
		genderEffect := 0.0
		if i%2 == 1 {
			genderEffect = 2
		}
		noise := float64((i*7)%5 - 2)
		score := math.Round(0.5*reading + 0.4*writing + lunchEffect + genderEffect + noise)
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%.0f,%.0f,%.0f\n",
			gender, race, quoteIfNeeded(edu), lunch, prep, score, reading, writing)
	}
	return b.String()
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, ",\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func init() {
	gob.Register(&targetEcho{})
}

// targetEcho treats feature 0 as the target and predicts
// y + sqrt(1-R2)*(y - mean(y)), which scores exactly R2 on any batch.
type targetEcho struct {
	State *model.StateManager
	R2    float64
	Fail  bool
}

func newTargetEcho(r2 float64) *targetEcho {
	return &targetEcho{State: model.NewStateManager(), R2: r2}
}

func (m *targetEcho) Fit(X, y mat.Matrix) error {
	if m.Fail {
		return errors.New("fit exploded")
	}
	r, c := X.Dims()
	m.State.SetFitted(c, r)
	return nil
}

func (m *targetEcho) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, err := model.CheckPredictInput("targetEcho", m.State, X)
	if err != nil {
		return nil, err
	}
	var mean float64
	for _, row := range rows {
		mean += row[0]
	}
	mean /= float64(len(rows))
	s := math.Sqrt(1 - m.R2)
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[0] + s*(row[0]-mean)
	}
	return model.ColumnMatrix(out), nil
}

func (m *targetEcho) GetParams() map[string]interface{} {
	return map[string]interface{}{"r2": m.R2, "fail": m.Fail}
}

func (m *targetEcho) SetParams(p map[string]interface{}) error {
	for k, v := range p {
		switch k {
		case "r2":
			m.R2 = v.(float64)
		case "fail":
			m.Fail = v.(bool)
		default:
			return model.UnknownParam("targetEcho", k)
		}
	}
	return nil
}

func (m *targetEcho) Clone() model.Regressor {
	c := newTargetEcho(m.R2)
	c.Fail = m.Fail
	return c
}

// echoMatrices returns train/test matrices whose feature 0 equals the target.
func echoMatrices() (*mat.Dense, *mat.Dense) {
	build := func(n, offset int) *mat.Dense {
		d := mat.NewDense(n, 2, nil)
		for i := 0; i < n; i++ {
			v := float64((i*17+offset)%23) + 0.5*float64(i)
			d.Set(i, 0, v)
			d.Set(i, 1, v)
		}
		return d
	}
	return build(30, 3), build(12, 5)
}
