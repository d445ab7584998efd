package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/examscore/dataset"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/preprocessing"
)

// Record is one raw student row without the target.
type Record struct {
	Gender                   string
	RaceEthnicity            string
	ParentalLevelOfEducation string
	Lunch                    string
	TestPreparationCourse    string
	ReadingScore             float64
	WritingScore             float64
}

// Normalize lower-cases and trims the categorical fields.
func (r Record) Normalize() Record {
	r.Gender = preprocessing.NormalizeCategory(r.Gender)
	r.RaceEthnicity = preprocessing.NormalizeCategory(r.RaceEthnicity)
	r.ParentalLevelOfEducation = preprocessing.NormalizeCategory(r.ParentalLevelOfEducation)
	r.Lunch = preprocessing.NormalizeCategory(r.Lunch)
	r.TestPreparationCourse = preprocessing.NormalizeCategory(r.TestPreparationCourse)
	return r
}

func (r Record) cells() map[string]string {
	n := r.Normalize()
	return map[string]string{
		preprocessing.ColGender:                   n.Gender,
		preprocessing.ColRaceEthnicity:            n.RaceEthnicity,
		preprocessing.ColParentalLevelOfEducation: n.ParentalLevelOfEducation,
		preprocessing.ColLunch:                    n.Lunch,
		preprocessing.ColTestPreparationCourse:    n.TestPreparationCourse,
		preprocessing.ColReadingScore:             strconv.FormatFloat(n.ReadingScore, 'g', -1, 64),
		preprocessing.ColWritingScore:             strconv.FormatFloat(n.WritingScore, 'g', -1, 64),
	}
}

// RecordsFrame lays records out with the given column order.
func RecordsFrame(columns []string, records ...Record) (*dataset.Frame, error) {
	rows := make([][]string, len(records))
	for i, r := range records {
		cells := r.cells()
		row := make([]string, len(columns))
		for j, c := range columns {
			v, ok := cells[c]
			if !ok {
				return nil, errors.NewPredictionInputError(c, nil, "not a student record field", nil)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return dataset.New(append([]string(nil), columns...), rows)
}

// ParseRecord builds a Record from named string values, such as HTML form
// fields. Score fields must be numbers; categorical fields may be empty and
// are then imputed by the transformer.
func ParseRecord(get func(name string) string) (Record, error) {
	rec := Record{
		Gender:                   get(preprocessing.ColGender),
		RaceEthnicity:            get(preprocessing.ColRaceEthnicity),
		ParentalLevelOfEducation: get(preprocessing.ColParentalLevelOfEducation),
		Lunch:                    get(preprocessing.ColLunch),
		TestPreparationCourse:    get(preprocessing.ColTestPreparationCourse),
	}
	var err error
	if rec.ReadingScore, err = parseScore(preprocessing.ColReadingScore, get(preprocessing.ColReadingScore)); err != nil {
		return Record{}, err
	}
	if rec.WritingScore, err = parseScore(preprocessing.ColWritingScore, get(preprocessing.ColWritingScore)); err != nil {
		return Record{}, err
	}
	return rec.Normalize(), nil
}

func parseScore(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.NewPredictionInputError(field, raw, "is required", nil)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewPredictionInputError(field, raw, "must be a number", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewPredictionInputError(field, raw, "must be a finite number", nil)
	}
	return v, nil
}
