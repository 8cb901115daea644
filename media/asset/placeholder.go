package asset

import (
	"github.com/leeforge/assetpipe/media/processor"
)

// Placeholder is shown while the real image loads. Exactly one of the two
// forms is set, as named by Kind.
type Placeholder struct {
	Kind  processor.PlaceholderKind `json:"kind"`
	Value string                    `json:"value"`
}

// NewLQIP wraps a data:image/jpeg;base64 URI.
func NewLQIP(dataURI string) Placeholder {
	return Placeholder{Kind: processor.PlaceholderLQIP, Value: dataURI}
}

// NewColor wraps a CSS rgba() colour.
func NewColor(css string) Placeholder {
	return Placeholder{Kind: processor.PlaceholderColor, Value: css}
}

// DataURI returns the LQIP data URI, if this is an LQIP placeholder.
func (p Placeholder) DataURI() (string, bool) {
	if p.Kind != processor.PlaceholderLQIP {
		return "", false
	}
	return p.Value, true
}

// CSS returns the colour, if this is a colour placeholder.
func (p Placeholder) CSS() (string, bool) {
	if p.Kind != processor.PlaceholderColor {
		return "", false
	}
	return p.Value, true
}

func (p Placeholder) String() string {
	return p.Value
}
