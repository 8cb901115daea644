package asset

import (
	apperrors "github.com/leeforge/assetpipe/errors"
)

// LightDark pairs the light and dark mode renditions of one picture.
type LightDark struct {
	id    string
	light Image
	dark  Image
	alt   string
}

// NewLightDark pairs light and dark. Both must use the same placeholder
// kind. The pair takes the light image's identifier.
func NewLightDark(light, dark Image, alt string) (*LightDark, error) {
	if light == nil || dark == nil {
		return nil, apperrors.NewValidation("light/dark pair needs both images")
	}
	lk, dk := light.Placeholder().Kind, dark.Placeholder().Kind
	if lk != dk {
		return nil, apperrors.NewPlaceholderMismatch(string(lk), string(dk)).
			WithDetail("light", light.RelPath()).
			WithDetail("dark", dark.RelPath())
	}
	return &LightDark{id: light.ID(), light: light, dark: dark, alt: alt}, nil
}

func (p *LightDark) ID() string   { return p.id }
func (p *LightDark) Light() Image { return p.light }
func (p *LightDark) Dark() Image  { return p.dark }
func (p *LightDark) Alt() string  { return p.alt }
