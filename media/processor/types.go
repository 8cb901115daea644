package processor

import "image"

// MIMEJPEG is the MIME type of every generated variant.
const MIMEJPEG = "image/jpeg"

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 80

// SourceImage is a decoded original. It is never mutated after Decode and is
// shared by pointer between all variants generated from it.
type SourceImage struct {
	// AbsPath is the absolute path of the original file.
	AbsPath string
	// RelPath is the slash-separated path relative to the images root.
	RelPath string
	// Image holds the decoded pixels, orientation already applied.
	Image image.Image
	// Width and Height are the pixel dimensions of Image.
	Width  uint32
	Height uint32
	// MIME is the sniffed type of the original bytes.
	MIME string
}

// WithoutPixels returns a copy that keeps the metadata and drops Image, so
// the decoded pixels can be collected once every variant is written.
func (s *SourceImage) WithoutPixels() *SourceImage {
	c := *s
	c.Image = nil
	return &c
}
