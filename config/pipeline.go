// Package config loads the pipeline configuration from layered YAML files
// and ASSETPIPE_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/leeforge/assetpipe/logging"
	"github.com/leeforge/assetpipe/media/builder"
	"github.com/leeforge/assetpipe/media/codegen"
	"github.com/leeforge/assetpipe/media/processor"
	"github.com/leeforge/assetpipe/media/storage"
)

// Pipeline is the whole configuration file.
type Pipeline struct {
	Images  Images         `mapstructure:"images" json:"images" yaml:"images"`
	Storage storage.Config `mapstructure:"storage" json:"storage" yaml:"storage"`
	Log     logging.Config `mapstructure:"log" json:"log" yaml:"log"`
}

// Images configures the build itself.
type Images struct {
	SourceDir    string             `mapstructure:"source_dir" json:"source_dir" yaml:"source_dir" default:"images" validate:"required"`
	OutputDir    string             `mapstructure:"output_dir" json:"output_dir" yaml:"output_dir" default:"dist/images" validate:"required"`
	URLPrefix    string             `mapstructure:"url_prefix" json:"url_prefix" yaml:"url_prefix" default:"/images"`
	Placeholder  string             `mapstructure:"placeholder" json:"placeholder" yaml:"placeholder" default:"lqip" validate:"oneof=lqip color"`
	Placeholders []PlaceholderEntry `mapstructure:"placeholders" json:"placeholders" yaml:"placeholders" validate:"dive"`
	Alt          []AltEntry         `mapstructure:"alt" json:"alt" yaml:"alt" validate:"dive"`
	Required     []string           `mapstructure:"required" json:"required" yaml:"required" validate:"dive,required"`
	Pairs        []builder.Pair     `mapstructure:"pairs" json:"pairs" yaml:"pairs" validate:"dive"`
	Quality      int                `mapstructure:"quality" json:"quality" yaml:"quality" default:"80" validate:"min=1,max=100"`
	Workers      int                `mapstructure:"workers" json:"workers" yaml:"workers" validate:"min=0"`
	ImageTimeout time.Duration      `mapstructure:"image_timeout" json:"image_timeout" yaml:"image_timeout" validate:"min=0"`
	Manifest     string             `mapstructure:"manifest" json:"manifest" yaml:"manifest"`
	Codegen      Codegen            `mapstructure:"codegen" json:"codegen" yaml:"codegen"`
}

// PlaceholderEntry overrides the placeholder kind of one source.
type PlaceholderEntry struct {
	Path string `mapstructure:"path" json:"path" yaml:"path" validate:"required"`
	Kind string `mapstructure:"kind" json:"kind" yaml:"kind" validate:"oneof=lqip color"`
}

// AltEntry sets the alt text of one source.
type AltEntry struct {
	Path string `mapstructure:"path" json:"path" yaml:"path" validate:"required"`
	Text string `mapstructure:"text" json:"text" yaml:"text"`
}

// Codegen configures the generated Go file.
type Codegen struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Output  string `mapstructure:"output" json:"output" yaml:"output" default:"assets/assets_gen.go" validate:"required_if=Enabled true"`
	Package string `mapstructure:"package" json:"package" yaml:"package" default:"assets" validate:"required"`
	Prefix  string `mapstructure:"prefix" json:"prefix" yaml:"prefix" default:"Img" validate:"required"`
}

// Options converts the section into generator options.
func (c Codegen) Options() codegen.Options {
	return codegen.Options{Package: c.Package, Prefix: c.Prefix}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks tags plus the rules that span fields.
func (p *Pipeline) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if p.Storage.Driver == storage.DriverOSS && (p.Storage.OSS.Endpoint == "" || p.Storage.OSS.Bucket == "") {
		return fmt.Errorf("config validation failed: storage.oss.endpoint and storage.oss.bucket are required for the oss driver")
	}
	return nil
}

// BuilderOptions converts the images section into builder options.
func (p *Pipeline) BuilderOptions() builder.Options {
	opts := builder.Options{
		SourceDir:    p.Images.SourceDir,
		URLPrefix:    p.Images.URLPrefix,
		Placeholder:  processor.PlaceholderKind(p.Images.Placeholder),
		Placeholders: make(map[string]processor.PlaceholderKind, len(p.Images.Placeholders)),
		Alt:          make(map[string]string, len(p.Images.Alt)),
		Required:     p.Images.Required,
		Pairs:        p.Images.Pairs,
		Quality:      p.Images.Quality,
		Workers:      p.Images.Workers,
		ImageTimeout: p.Images.ImageTimeout,
		Ignore:       []string{p.Images.OutputDir},
	}
	for _, e := range p.Images.Placeholders {
		opts.Placeholders[e.Path] = processor.PlaceholderKind(e.Kind)
	}
	for _, e := range p.Images.Alt {
		opts.Alt[e.Path] = e.Text
	}
	return opts
}

// Load binds and validates a Pipeline. Each override is applied to the
// bound values before validation.
func Load(opts LoaderOptions, overrides ...func(*Pipeline)) (*Pipeline, *Loader, error) {
	loader, err := NewLoader(opts)
	if err != nil {
		return nil, nil, err
	}
	p, err := loader.Pipeline(overrides...)
	if err != nil {
		return nil, nil, err
	}
	return p, loader, nil
}

// Pipeline binds a fresh Pipeline from the current state of the loader,
// applies overrides in order, then validates the result.
func (l *Loader) Pipeline(overrides ...func(*Pipeline)) (*Pipeline, error) {
	var p Pipeline
	if err := l.Bind(&p); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(&p)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
