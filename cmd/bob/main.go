package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/WaDelma/bob/generate"
	"github.com/WaDelma/bob/schema"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the generator and returns an exit code. It exists separately
// from main so tests can drive the whole tool without os.Exit.
func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("bob", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.String("src", ".", "source directory to scan for annotated structs")
	flags.StringSlice("type", nil, "struct names to generate for (repeatable; directives always select)")
	flags.String("spec", "", "path to a JSON/YAML schema document instead of scanning source")
	flags.String("out", "", "output path (spec mode only; defaults next to the spec)")
	flags.String("config", "", "path to a bob config file (default: probe bob.yaml/json/toml)")
	flags.String("prefix", "", "setter prefix applied when a struct has no //bob:prefix directive")
	flags.String("strategy", "", "strategy applied when a struct has no //bob:strategy directive")
	flags.Int("max-required", generate.DefaultMaxRequired, "required-field cap for the states strategy")
	flags.String("suffix", defaultSuffix, "generated file name suffix")
	flags.Bool("dump-schema", false, "print normalized schemas as JSON and generate nothing")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	log := newLogger(stderr, cfg.Verbose)
	defer func() { _ = log.Sync() }()

	schemas, err := collectSchemas(cfg)
	if err != nil {
		log.Errorw("schema collection failed", "error", err)
		return 1
	}
	if len(schemas) == 0 {
		log.Warnw("nothing to generate", "src", cfg.Src)
		return 0
	}

	if cfg.DumpSchema {
		for _, s := range schemas {
			out, err := s.DumpJSON()
			if err != nil {
				log.Errorw("schema dump failed", "record", s.Record, "error", err)
				return 1
			}
			fmt.Fprintln(stdout, string(out))
		}
		return 0
	}

	gen := generate.New(generate.WithMaxRequired(cfg.MaxRequired))

	for _, s := range schemas {
		target := outputPath(cfg, s)
		src, err := gen.Generate(s)
		if err != nil {
			if len(src) > 0 {
				// Leave the unformattable rendering on disk for debugging,
				// under a name the toolchain will not compile.
				broken := target + ".broken"
				_ = os.WriteFile(broken, src, 0o644)
				log.Errorw("generation failed, raw output kept", "record", s.Record, "path", broken, "error", err)
			} else {
				log.Errorw("generation failed", "record", s.Record, "error", err)
			}
			return 1
		}

		if err := generate.WriteFileAtomic(target, src, 0o644); err != nil {
			log.Errorw("write failed", "record", s.Record, "path", target, "error", err)
			return 1
		}
		log.Infow("generated", "record", s.Record, "strategy", string(s.Strategy), "path", target)
	}
	return 0
}

// collectSchemas resolves the generation targets from either a spec document
// or a package scan.
func collectSchemas(cfg *Config) ([]*schema.Schema, error) {
	if strings.TrimSpace(cfg.Spec) != "" {
		s, err := schema.LoadSpecFile(cfg.Spec)
		if err != nil {
			return nil, err
		}
		return []*schema.Schema{s}, nil
	}

	return schema.Scan(cfg.Src, schema.ScanOptions{
		Only:            cfg.Types,
		DefaultPrefix:   cfg.Prefix,
		DefaultStrategy: schema.Strategy(cfg.Strategy),
	})
}

// outputPath decides where a schema's generated file goes.
func outputPath(cfg *Config, s *schema.Schema) string {
	if strings.TrimSpace(cfg.Spec) != "" {
		if strings.TrimSpace(cfg.Out) != "" {
			return cfg.Out
		}
		return filepath.Join(filepath.Dir(cfg.Spec), strings.ToLower(s.Record)+cfg.Suffix)
	}
	return filepath.Join(cfg.Src, strings.ToLower(s.Record)+cfg.Suffix)
}

// newLogger builds a console logger writing to the given sink, so tests can
// capture tool output.
func newLogger(sink io.Writer, verbose bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(sink),
		level,
	)
	return zap.New(core).Sugar()
}
