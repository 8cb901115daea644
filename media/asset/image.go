// Package asset describes built images in the shape templates consume.
package asset

import (
	"strconv"
	"strings"

	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/media/processor"
)

// Image is what templates see. BuiltImage implements it at build time and
// StaticImage at run time, after loading a manifest.
type Image interface {
	ID() string
	RelPath() string
	Width() uint32
	Height() uint32
	Alt() string
	Srcset() string
	Src() string
	Placeholder() Placeholder
	Sources() []Source
}

// BuiltImage is a decoded original together with its encoded variants.
type BuiltImage struct {
	source      *processor.SourceImage
	id          string
	alt         string
	variants    []ResizedVariant
	placeholder Placeholder
}

// NewBuiltImage assembles a BuiltImage. variants must be ascending by
// width; an empty list fails with ErrNoVariants.
func NewBuiltImage(src *processor.SourceImage, variants []ResizedVariant, placeholder Placeholder, alt string) (*BuiltImage, error) {
	if len(variants) == 0 {
		return nil, apperrors.NewNoVariants(src.RelPath, src.Width)
	}
	for i := 1; i < len(variants); i++ {
		if variants[i].Width <= variants[i-1].Width {
			return nil, apperrors.NewInternal("variants are not in ascending width order").WithPath(src.RelPath)
		}
	}

	return &BuiltImage{
		source:      src,
		id:          Identifier(Stem(src.RelPath)),
		alt:         alt,
		variants:    variants,
		placeholder: placeholder,
	}, nil
}

func (b *BuiltImage) ID() string                       { return b.id }
func (b *BuiltImage) RelPath() string                  { return b.source.RelPath }
func (b *BuiltImage) Width() uint32                    { return b.source.Width }
func (b *BuiltImage) Height() uint32                   { return b.source.Height }
func (b *BuiltImage) Alt() string                      { return b.alt }
func (b *BuiltImage) Placeholder() Placeholder         { return b.placeholder }
func (b *BuiltImage) Original() *processor.SourceImage { return b.source }
func (b *BuiltImage) Variants() []ResizedVariant       { return b.variants }

// Sources lists the variants without their bytes.
func (b *BuiltImage) Sources() []Source {
	out := make([]Source, len(b.variants))
	for i, v := range b.variants {
		out[i] = v.Source
	}
	return out
}

// Srcset joins "{url} {w}w" for every variant, ascending.
func (b *BuiltImage) Srcset() string {
	return srcset(b.Sources())
}

// Src is the narrowest variant, used when srcset is unsupported.
func (b *BuiltImage) Src() string {
	return b.variants[0].URL
}

// TotalBytes sums the encoded size of every variant.
func (b *BuiltImage) TotalBytes() int {
	n := 0
	for _, v := range b.variants {
		n += v.Size()
	}
	return n
}

func srcset(sources []Source) string {
	var sb strings.Builder
	for i, s := range sources {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.URL)
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatUint(uint64(s.Width), 10))
		sb.WriteByte('w')
	}
	return sb.String()
}
