// Package config holds the settings shared by the training and serving
// commands. Values come from built-in defaults, an optional HCL file and
// command-line flags, in increasing order of precedence.
package config

import (
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/preprocessing"
)

// Default values.
const (
	DefaultSourcePath = "notebook/data/stud.csv"
	DefaultTestRatio  = 0.2
	DefaultRandomSeed = 42
	DefaultCVFolds    = 3
	DefaultMinR2      = 0.6
	DefaultAddr       = ":8080"
)

// Config is the resolved configuration of one process.
type Config struct {
	// ArtifactRoot pins the artifact directory. Empty means the trainer
	// writes to ./artifacts and inference searches the default candidates.
	ArtifactRoot string
	SourcePath   string
	TargetColumn string
	TestRatio    float64
	RandomSeed   int64
	CVFolds      int
	MinR2        float64
	NJobs        int
	ReportChart  string

	LogLevel  string
	LogFormat string

	Addr string
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		SourcePath:   DefaultSourcePath,
		TargetColumn: preprocessing.ColMathScore,
		TestRatio:    DefaultTestRatio,
		RandomSeed:   DefaultRandomSeed,
		CVFolds:      DefaultCVFolds,
		MinR2:        DefaultMinR2,
		LogLevel:     "info",
		LogFormat:    log.FormatJSON,
		Addr:         DefaultAddr,
	}
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.SourcePath == "":
		return errors.NewValidationError("source_path", "must not be empty", c.SourcePath)
	case c.TargetColumn == "":
		return errors.NewValidationError("target_column", "must not be empty", c.TargetColumn)
	case c.TestRatio <= 0 || c.TestRatio >= 1:
		return errors.NewValidationError("test_ratio", "must be in (0, 1)", c.TestRatio)
	case c.CVFolds < 2:
		return errors.NewValidationError("cv_folds", "must be at least 2", c.CVFolds)
	case c.MinR2 > 1:
		return errors.NewValidationError("min_r2", "must not exceed 1", c.MinR2)
	case c.Addr == "":
		return errors.NewValidationError("server.addr", "must not be empty", c.Addr)
	}
	for _, col := range preprocessing.FeatureColumns() {
		if c.TargetColumn == col {
			return errors.NewValidationError("target_column", "must not be a feature column", c.TargetColumn)
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case log.FormatJSON, log.FormatText:
	default:
		return errors.NewValidationError("log.format", "must be json or text", c.LogFormat)
	}
	return nil
}

// Log returns the logger configuration.
func (c Config) Log() log.Config {
	return log.Config{Level: c.LogLevel, Format: c.LogFormat}
}
