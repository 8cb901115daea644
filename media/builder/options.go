package builder

import (
	"path"
	"strings"
	"time"

	"github.com/leeforge/assetpipe/media/processor"
)

// Pair names the light and dark sources of one picture, relative to the
// source root.
type Pair struct {
	Light string `mapstructure:"light" json:"light" yaml:"light" validate:"required"`
	Dark  string `mapstructure:"dark" json:"dark" yaml:"dark" validate:"required"`
	Alt   string `mapstructure:"alt" json:"alt" yaml:"alt"`
}

// Options drives one build. Paths in the maps and lists are relative to
// SourceDir and use forward slashes.
type Options struct {
	SourceDir    string
	URLPrefix    string
	Placeholder  processor.PlaceholderKind
	Placeholders map[string]processor.PlaceholderKind
	Alt          map[string]string
	Required     []string
	Pairs        []Pair
	Quality      int
	Workers      int
	// Ignore lists directories the scan never enters, such as an output
	// directory that lives inside SourceDir.
	Ignore []string
	// ImageTimeout bounds the wall-clock time spent on one image once its
	// first task starts. Zero disables the limit.
	ImageTimeout time.Duration
}

func (o Options) placeholderFor(rel string) processor.PlaceholderKind {
	if kind, ok := o.Placeholders[rel]; ok {
		return kind
	}
	if o.Placeholder == "" {
		return processor.PlaceholderLQIP
	}
	return o.Placeholder
}

func (o Options) quality() int {
	if o.Quality <= 0 || o.Quality > 100 {
		return processor.DefaultQuality
	}
	return o.Quality
}

// requiredSet holds every explicitly referenced source, pair members
// included.
func (o Options) requiredSet() map[string]struct{} {
	set := make(map[string]struct{}, len(o.Required)+2*len(o.Pairs))
	for _, rel := range o.Required {
		set[normalizeRel(rel)] = struct{}{}
	}
	for _, p := range o.Pairs {
		set[normalizeRel(p.Light)] = struct{}{}
		set[normalizeRel(p.Dark)] = struct{}{}
	}
	return set
}

// normalizeRel converts a configured path into the form the scanner emits.
func normalizeRel(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+rel), "/")
}

// normalizeKeys rewrites map keys with normalizeRel.
func normalizeKeys[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[normalizeRel(k)] = v
	}
	return out
}
