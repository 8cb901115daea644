package processor

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"

	apperrors "github.com/leeforge/assetpipe/errors"
)

// ScaledHeight returns ceil(origHeight * targetWidth / origWidth), at least 1.
func ScaledHeight(origWidth, origHeight, targetWidth uint32) uint32 {
	if origWidth == 0 {
		return 0
	}
	num := uint64(origHeight) * uint64(targetWidth)
	h := (num + uint64(origWidth) - 1) / uint64(origWidth)
	if h == 0 {
		h = 1
	}
	return uint32(h)
}

// ResizeToWidth scales img to targetWidth keeping its aspect ratio, using
// Lanczos3 resampling. Upscaling is rejected.
func ResizeToWidth(img image.Image, targetWidth uint32) (image.Image, error) {
	bounds := img.Bounds()
	origWidth := uint32(bounds.Dx())
	origHeight := uint32(bounds.Dy())

	if targetWidth == 0 {
		return nil, apperrors.NewValidation("target width must be positive").WithCode(apperrors.CodeUpscale)
	}
	if targetWidth > origWidth {
		return nil, apperrors.NewValidation(fmt.Sprintf("cannot upscale %dpx image to %dpx", origWidth, targetWidth)).
			WithCode(apperrors.CodeUpscale)
	}

	targetHeight := ScaledHeight(origWidth, origHeight, targetWidth)
	return resize.Resize(uint(targetWidth), uint(targetHeight), img, resize.Lanczos3), nil
}
