// Command assetpipe builds responsive image variants and placeholders ahead
// of deployment.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/leeforge/assetpipe/config"
	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/logging"
	"github.com/leeforge/assetpipe/media/builder"
	"github.com/leeforge/assetpipe/media/catalog"
	"github.com/leeforge/assetpipe/media/codegen"
	"github.com/leeforge/assetpipe/media/storage"
	"github.com/leeforge/assetpipe/metrics"
	"github.com/leeforge/assetpipe/utils"
)

type cliFlags struct {
	configDir      string
	source         string
	output         string
	placeholder    string
	workers        int
	manifest       string
	codegen        string
	codegenPackage string
	watch          bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, *pflag.FlagSet, error) {
	f := &cliFlags{}
	flags := pflag.NewFlagSet("assetpipe", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.StringVar(&f.configDir, "config-dir", "", "directory holding config.yaml (default $CONFIG_PATH or ./config)")
	flags.StringVarP(&f.source, "source", "s", "", "source image directory")
	flags.StringVarP(&f.output, "output", "o", "", "build output directory")
	flags.StringVar(&f.placeholder, "placeholder", "", "placeholder kind: lqip or color")
	flags.IntVarP(&f.workers, "workers", "j", 0, "worker goroutines (0 = one per CPU)")
	flags.StringVar(&f.manifest, "manifest", "", "write the asset manifest to this file (- for stdout)")
	flags.StringVar(&f.codegen, "codegen", "", "write generated Go code to this file")
	flags.StringVar(&f.codegenPackage, "codegen-package", "", "package name of the generated Go code")
	flags.BoolVarP(&f.watch, "watch", "w", false, "rebuild when source images change")

	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, flags, nil
}

// applyFlags lets explicitly set flags override the config files.
func applyFlags(p *config.Pipeline, f *cliFlags, flags *pflag.FlagSet) {
	if flags.Changed("source") {
		p.Images.SourceDir = f.source
	}
	if flags.Changed("output") {
		p.Images.OutputDir = f.output
	}
	if flags.Changed("placeholder") {
		p.Images.Placeholder = f.placeholder
	}
	if flags.Changed("workers") {
		p.Images.Workers = f.workers
	}
	if flags.Changed("manifest") {
		p.Images.Manifest = f.manifest
	}
	if flags.Changed("codegen") {
		p.Images.Codegen.Enabled = f.codegen != ""
		p.Images.Codegen.Output = f.codegen
	}
	if flags.Changed("codegen-package") {
		p.Images.Codegen.Package = f.codegenPackage
	}
}

func loadPipeline(f *cliFlags, flags *pflag.FlagSet) (*config.Pipeline, *config.Loader, error) {
	opts := config.DefaultLoaderOptions()
	if f.configDir != "" {
		opts.BasePath = f.configDir
	}
	return config.Load(opts, flagOverride(f, flags))
}

func flagOverride(f *cliFlags, flags *pflag.FlagSet) func(*config.Pipeline) {
	return func(p *config.Pipeline) { applyFlags(p, f, flags) }
}

// buildOnce runs one build and writes its manifest and generated code.
func buildOnce(ctx context.Context, p *config.Pipeline, log logging.Logger, stdout io.Writer) (*catalog.Catalog, error) {
	store, err := storage.NewFromConfig(p.Storage, p.Images.OutputDir)
	if err != nil {
		return nil, err
	}
	driver, err := builder.New(p.BuilderOptions(), store, log, metrics.NewCollector())
	if err != nil {
		return nil, err
	}

	cat, err := driver.Build(ctx)
	if err != nil {
		return nil, err
	}

	if p.Images.Manifest != "" {
		if err := writeManifest(cat, p.Images.Manifest, stdout); err != nil {
			return nil, err
		}
		log.Info("manifest written", logging.Path(p.Images.Manifest))
	}
	if p.Images.Codegen.Enabled {
		src, err := codegen.Generate(cat, p.Images.Codegen.Options())
		if err != nil {
			return nil, err
		}
		if err := writeFile(p.Images.Codegen.Output, src); err != nil {
			return nil, err
		}
		log.Info("code generated", logging.Path(p.Images.Codegen.Output))
	}
	return cat, nil
}

func writeManifest(cat *catalog.Catalog, path string, stdout io.Writer) error {
	if path == "-" {
		_, err := cat.WriteManifest(stdout)
		return err
	}
	var buf bytes.Buffer
	if _, err := cat.WriteManifest(&buf); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return apperrors.NewIO(path, err)
	}
	return nil
}

// reportFatal logs err with the offending path, if it carries one.
func reportFatal(log logging.Logger, err error) {
	fields := []zap.Field{zap.String("error", apperrors.NewErrorFormatter(true).Format(err))}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fields = append(fields, zap.String("type", string(appErr.Type)), zap.String("code", appErr.Code))
		if path := appErr.Path(); path != "" {
			fields = append(fields, logging.Path(path))
		}
	}
	log.Error("build failed", fields...)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "failed to load .env file: %v\n", err)
	}

	p, loader, err := loadPipeline(f, flags)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	log := logging.Init(p.Log)
	defer log.Sync()

	if _, err := buildOnce(ctx, p, log, stdout); err != nil {
		reportFatal(log, err)
		return 1
	}
	if !f.watch {
		return 0
	}

	// Config edits take effect on the next rebuild.
	var current atomic.Pointer[config.Pipeline]
	current.Store(p)
	if err := loader.Watch(ctx, func(err error) {
		if err == nil {
			var next *config.Pipeline
			if next, err = loader.Pipeline(flagOverride(f, flags)); err == nil {
				current.Store(next)
				log.Info("config reloaded", zap.Strings("files", loader.Files()))
				return
			}
		}
		log.Warn("config reload failed", zap.Error(err))
	}); err != nil {
		log.Debug("config watch disabled", zap.Error(err))
	}

	err = builder.Watch(ctx, p.Images.SourceDir, builder.DefaultDebounce, func(ctx context.Context) error {
		_, err := buildOnce(ctx, current.Load(), log, stdout)
		return err
	}, builder.WithWatchLogger(log), builder.WithIgnore(p.Images.OutputDir))
	if err != nil {
		reportFatal(log, err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
