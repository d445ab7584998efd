package config

import (
	"flag"
	"fmt"
	"io"
)

// Commands that accept flags.
const (
	CommandTrain = "train"
	CommandServe = "server"
)

// ExitError carries the process exit code for a command-line failure.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Parse resolves the configuration for command from defaults, the optional
// -config file and explicitly set flags. It returns true when the program
// should exit cleanly (for -h).
func Parse(command string, args []string, output io.Writer) (*Config, bool, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "\nUsage:\n  %s [options]\n\nOptions:\n", command)
		fs.PrintDefaults()
	}

	d := Defaults()
	configPath := fs.String("config", "", "Path to an HCL configuration file.")
	artifacts := fs.String("artifacts", "", "Artifact root directory. Empty searches the default locations.")
	logLevel := fs.String("log-level", d.LogLevel, "Logging level: debug, info, warn or error.")
	logFormat := fs.String("log-format", d.LogFormat, "Log output format: json or text.")

	var source, chart, addr *string
	var nJobs *int
	switch command {
	case CommandTrain:
		source = fs.String("source", d.SourcePath, "Path to the source CSV.")
		chart = fs.String("report-chart", "", "Write a bar chart of candidate scores to this PNG/SVG path.")
		nJobs = fs.Int("n-jobs", 0, "Parallel workers for grid search. 0 uses the physical core count.")
	case CommandServe:
		addr = fs.String("addr", d.Addr, "HTTP listen address.")
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", command)}
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if fs.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %v", fs.Args())}
	}

	cfg := d
	if *configPath != "" {
		loaded, err := LoadFile(*configPath, cfg)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg = loaded
	}

	// 明示的に指定されたフラグだけがファイルの値を上書きする
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "artifacts":
			cfg.ArtifactRoot = *artifacts
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "source":
			cfg.SourcePath = *source
		case "report-chart":
			cfg.ReportChart = *chart
		case "n-jobs":
			cfg.NJobs = *nJobs
		case "addr":
			cfg.Addr = *addr
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return &cfg, false, nil
}
