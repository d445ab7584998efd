// Command train ingests the student CSV, fits the preprocessor, selects the
// best of the candidate regressors and persists the artifacts.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/cpuid/v2"

	"github.com/YuminosukeSato/examscore/config"
	"github.com/YuminosukeSato/examscore/core/parallel"
	"github.com/YuminosukeSato/examscore/pipeline"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns 0 on success, 1 when the pipeline fails and 2 on usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, exit, err := config.Parse(config.CommandTrain, args, stderr)
	if exit {
		return 0
	}
	if err != nil {
		var ee *config.ExitError
		if errors.As(err, &ee) {
			fmt.Fprintln(stderr, ee.Message)
			return ee.Code
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	logCfg := cfg.Log()
	logCfg.Output = stderr
	if err := log.Setup(logCfg); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger := log.GetLoggerWithName("train")
	logger.Info("host",
		"cpu", cpuid.CPU.BrandName,
		"physical_cores", cpuid.CPU.PhysicalCores,
		"logical_cores", cpuid.CPU.LogicalCores,
		log.WorkersKey, parallel.Resolve(cfg.NJobs),
	)

	res, err := pipeline.NewTrainingPipeline(*cfg).Run()
	if res != nil && res.Report != nil && res.Report.Len() > 0 {
		if werr := report.WriteTable(stdout, res.Report); werr != nil {
			logger.Warn("write report table", werr)
		}
		if cfg.ReportChart != "" {
			if cerr := report.SaveChart(res.Report, cfg.MinR2, cfg.ReportChart); cerr != nil {
				logger.Warn("write report chart", cerr, log.PathKey, cfg.ReportChart)
			} else {
				logger.Info("report chart written", log.PathKey, cfg.ReportChart)
			}
		}
	}
	if err != nil {
		logger.Error("training failed", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "best model: %s\n", res.BestModel)
	fmt.Fprintf(stdout, "r2 score: %.4f\n", res.Score)
	return 0
}
