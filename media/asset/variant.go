package asset

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/leeforge/assetpipe/media/processor"
)

// Source describes one entry of a srcset without its bytes.
type Source struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	URL    string `json:"url"`
	MIME   string `json:"mime"`
}

// ResizedVariant is one encoded rung of the width ladder.
type ResizedVariant struct {
	Source
	RelPath  string
	Data     []byte
	CacheHit bool
	// Digest is the xxhash64 of Data in hex. It is reported for
	// diagnostics and never used to decide whether to rebuild.
	Digest string
}

// NewResizedVariant builds a variant from the planned path and its bytes.
func NewResizedVariant(path VariantPath, height uint32, data []byte, cacheHit bool) ResizedVariant {
	return ResizedVariant{
		Source: Source{
			Width:  path.Width,
			Height: height,
			URL:    path.URL,
			MIME:   processor.MIMEJPEG,
		},
		RelPath:  path.RelPath,
		Data:     data,
		CacheHit: cacheHit,
		Digest:   Digest(data),
	}
}

// Size returns the encoded size in bytes.
func (v ResizedVariant) Size() int {
	return len(v.Data)
}

// Digest returns the xxhash64 of data as 16 hex digits.
func Digest(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
