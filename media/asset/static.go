package asset

import (
	apperrors "github.com/leeforge/assetpipe/errors"
)

// StaticImage carries the same descriptors as a BuiltImage without pixel
// data or encoded bytes. It is what a manifest loads into.
type StaticImage struct {
	Identifier      string      `json:"id"`
	Path            string      `json:"path"`
	OriginalWidth   uint32      `json:"width"`
	OriginalHeight  uint32      `json:"height"`
	AltText         string      `json:"alt,omitempty"`
	Variants        []Source    `json:"variants"`
	PlaceholderData Placeholder `json:"placeholder"`
}

// Snapshot copies the descriptors of any Image.
func Snapshot(img Image) *StaticImage {
	return &StaticImage{
		Identifier:      img.ID(),
		Path:            img.RelPath(),
		OriginalWidth:   img.Width(),
		OriginalHeight:  img.Height(),
		AltText:         img.Alt(),
		Variants:        img.Sources(),
		PlaceholderData: img.Placeholder(),
	}
}

// Validate checks what a StaticImage needs to render.
func (s *StaticImage) Validate() error {
	if s.Identifier == "" {
		return apperrors.NewValidation("static image has no identifier").WithPath(s.Path)
	}
	if len(s.Variants) == 0 {
		return apperrors.NewNoVariants(s.Path, s.OriginalWidth)
	}
	for i := 1; i < len(s.Variants); i++ {
		if s.Variants[i].Width <= s.Variants[i-1].Width {
			return apperrors.NewValidation("static image variants are not ascending").WithPath(s.Path)
		}
	}
	return nil
}

func (s *StaticImage) ID() string               { return s.Identifier }
func (s *StaticImage) RelPath() string          { return s.Path }
func (s *StaticImage) Width() uint32            { return s.OriginalWidth }
func (s *StaticImage) Height() uint32           { return s.OriginalHeight }
func (s *StaticImage) Alt() string              { return s.AltText }
func (s *StaticImage) Placeholder() Placeholder { return s.PlaceholderData }
func (s *StaticImage) Sources() []Source        { return s.Variants }
func (s *StaticImage) Srcset() string           { return srcset(s.Variants) }

// Src is the narrowest variant. It is empty for an unvalidated image with
// no variants.
func (s *StaticImage) Src() string {
	if len(s.Variants) == 0 {
		return ""
	}
	return s.Variants[0].URL
}
