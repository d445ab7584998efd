package config

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// hclFile is the decoded shape of a configuration file:
//
//	artifact_root = "artifacts"
//	source_path   = env("EXAMSCORE_SOURCE")
//	min_r2        = 0.6
//	log {
//	  level  = "debug"
//	  format = "text"
//	}
//	server {
//	  addr = ":5000"
//	}
//
// Attributes are pre-filled from the current Config, so absent ones keep
// their value. Unknown attributes and blocks are decode errors.
type hclFile struct {
	ArtifactRoot string    `hcl:"artifact_root,optional"`
	SourcePath   string    `hcl:"source_path,optional"`
	TargetColumn string    `hcl:"target_column,optional"`
	TestRatio    float64   `hcl:"test_ratio,optional"`
	RandomSeed   int64     `hcl:"random_seed,optional"`
	CVFolds      int       `hcl:"cv_folds,optional"`
	MinR2        float64   `hcl:"min_r2,optional"`
	NJobs        int       `hcl:"n_jobs,optional"`
	ReportChart  string    `hcl:"report_chart,optional"`
	Log          *logBlock `hcl:"log,block"`
	Server       *srvBlock `hcl:"server,block"`
}

type logBlock struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

type srvBlock struct {
	Addr string `hcl:"addr,optional"`
}

// envFunc reads an environment variable; unset variables evaluate to "".
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "name", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{"env": envFunc},
	}
}

// LoadFile applies the settings of an HCL file on top of base.
func LoadFile(path string, base Config) (Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return base, errors.Wrapf(diags, "failed to parse config file %s", path)
	}
	return decode(f.Body, path, base)
}

// LoadBytes is LoadFile for in-memory content; filename is used in diagnostics.
func LoadBytes(src []byte, filename string, base Config) (Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return base, errors.Wrapf(diags, "failed to parse config file %s", filename)
	}
	return decode(f.Body, filename, base)
}

func decode(body hcl.Body, path string, base Config) (Config, error) {
	parsed := hclFile{
		ArtifactRoot: base.ArtifactRoot,
		SourcePath:   base.SourcePath,
		TargetColumn: base.TargetColumn,
		TestRatio:    base.TestRatio,
		RandomSeed:   base.RandomSeed,
		CVFolds:      base.CVFolds,
		MinR2:        base.MinR2,
		NJobs:        base.NJobs,
		ReportChart:  base.ReportChart,
	}
	if diags := gohcl.DecodeBody(body, evalContext(), &parsed); diags.HasErrors() {
		return base, errors.Wrapf(diags, "failed to decode config file %s", path)
	}

	out := base
	out.ArtifactRoot = parsed.ArtifactRoot
	out.SourcePath = parsed.SourcePath
	out.TargetColumn = parsed.TargetColumn
	out.TestRatio = parsed.TestRatio
	out.RandomSeed = parsed.RandomSeed
	out.CVFolds = parsed.CVFolds
	out.MinR2 = parsed.MinR2
	out.NJobs = parsed.NJobs
	out.ReportChart = parsed.ReportChart
	if parsed.Log != nil {
		if parsed.Log.Level != "" {
			out.LogLevel = parsed.Log.Level
		}
		if parsed.Log.Format != "" {
			out.LogFormat = parsed.Log.Format
		}
	}
	if parsed.Server != nil && parsed.Server.Addr != "" {
		out.Addr = parsed.Server.Addr
	}
	return out, nil
}
