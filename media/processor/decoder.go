package processor

import (
	"bytes"
	"image"
	"io"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/leeforge/assetpipe/errors"
)

// DetectMIME sniffs the MIME type of data without decoding it.
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

// IsImageMIME reports whether mime names a raster image type. SVG is
// excluded since it cannot be resampled.
func IsImageMIME(mime string) bool {
	return strings.HasPrefix(mime, "image/") && !strings.HasPrefix(mime, "image/svg")
}

// Decode decodes data into a SourceImage. EXIF orientation is applied so the
// reported dimensions match what a browser displays.
func Decode(absPath, relPath string, data []byte) (*SourceImage, error) {
	if len(data) == 0 {
		return nil, apperrors.NewDecode(relPath, apperrors.NewValidation("empty file"))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.NewDecode(relPath, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, apperrors.NewDecode(relPath, apperrors.NewValidation("image has no pixels"))
	}

	return &SourceImage{
		AbsPath: absPath,
		RelPath: relPath,
		Image:   img,
		Width:   uint32(bounds.Dx()),
		Height:  uint32(bounds.Dy()),
		MIME:    DetectMIME(data),
	}, nil
}

// SniffLen is how many leading bytes DetectMIME needs.
const SniffLen = 3072

// DecodeConfig reads only the header of r for the stored dimensions. EXIF
// orientation is not applied, so a rotated photo reports them swapped.
func DecodeConfig(r io.Reader) (width, height uint32, format string, err error) {
	config, format, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, "", err
	}
	return uint32(config.Width), uint32(config.Height), format, nil
}
