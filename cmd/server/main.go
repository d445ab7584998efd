// Command server serves math-score predictions from the persisted artifacts
// through an HTML form.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/examscore/artifact"
	"github.com/YuminosukeSato/examscore/config"
	"github.com/YuminosukeSato/examscore/pipeline"
	"github.com/YuminosukeSato/examscore/pkg/errors"
	"github.com/YuminosukeSato/examscore/pkg/log"
	"github.com/YuminosukeSato/examscore/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// run serves until ctx is cancelled. It returns 0 after a clean shutdown,
// 1 when the server fails and 2 on usage errors.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, exit, err := config.Parse(config.CommandServe, args, stderr)
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
	logger := log.GetLoggerWithName("server")

	locator, err := artifact.NewLocator(cfg.ArtifactRoot)
	if err != nil {
		logger.Error("resolve artifact roots", err)
		return 1
	}
	// 起動時に成果物が無くても止めない。学習後のリクエストから使える
	if store, err := locator.Locate(artifact.PreprocessorFile, artifact.ModelFile); err != nil {
		logger.Warn("artifacts not found yet", err)
	} else {
		logger.Info("artifacts located", log.PathKey, store.Root)
	}

	srv, err := server.New(pipeline.NewPredictPipeline(locator), locator, logger)
	if err != nil {
		logger.Error("build server", err)
		return 1
	}
	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
		logger.Error("server stopped", err)
		return 1
	}
	return 0
}
