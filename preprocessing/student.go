// Package preprocessing implements the feature transformer for student
// records: imputers, a one-hot encoder, a standard scaler and the column
// transformer that combines them.
package preprocessing

// Raw record columns.
const (
	ColGender                   = "gender"
	ColRaceEthnicity            = "race_ethnicity"
	ColParentalLevelOfEducation = "parental_level_of_education"
	ColLunch                    = "lunch"
	ColTestPreparationCourse    = "test_preparation_course"
	ColReadingScore             = "reading_score"
	ColWritingScore             = "writing_score"

	// ColMathScore is the regression target.
	ColMathScore = "math_score"
)

// NumericColumns are the numeric feature columns in output order.
var NumericColumns = []string{ColReadingScore, ColWritingScore}

// CategoricalColumns are the categorical feature columns in output order.
var CategoricalColumns = []string{
	ColGender,
	ColRaceEthnicity,
	ColParentalLevelOfEducation,
	ColLunch,
	ColTestPreparationCourse,
}

// FeatureColumns returns the seven raw feature columns, numeric first.
func FeatureColumns() []string {
	cols := make([]string, 0, len(NumericColumns)+len(CategoricalColumns))
	cols = append(cols, NumericColumns...)
	return append(cols, CategoricalColumns...)
}

// BuildStudentTransformer returns an unfitted transformer for student records.
func BuildStudentTransformer() *ColumnTransformer {
	return NewColumnTransformer(NumericColumns, CategoricalColumns)
}
