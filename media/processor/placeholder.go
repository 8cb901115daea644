package processor

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/nfnt/resize"

	apperrors "github.com/leeforge/assetpipe/errors"
)

// LQIPWidth is the width of the embedded low-quality preview.
const LQIPWidth = 40

// PlaceholderKind selects which placeholder an image gets.
type PlaceholderKind string

const (
	// PlaceholderLQIP embeds a tiny JPEG as a data URI.
	PlaceholderLQIP PlaceholderKind = "lqip"
	// PlaceholderColor uses the average colour as a CSS rgba() string.
	PlaceholderColor PlaceholderKind = "color"
)

// ParsePlaceholderKind accepts "lqip" or "color" in any case.
func ParsePlaceholderKind(s string) (PlaceholderKind, error) {
	switch PlaceholderKind(strings.ToLower(strings.TrimSpace(s))) {
	case PlaceholderLQIP:
		return PlaceholderLQIP, nil
	case PlaceholderColor:
		return PlaceholderColor, nil
	default:
		return "", apperrors.NewValidation(fmt.Sprintf("unknown placeholder kind %q", s)).
			WithCode(apperrors.CodeInvalidConfig)
	}
}

// GenerateLQIP returns a data:image/jpeg;base64 URI of img scaled to 40px
// wide. Images narrower than that are encoded at their own width.
func GenerateLQIP(img image.Image, quality int) (string, error) {
	width := uint32(LQIPWidth)
	if w := uint32(img.Bounds().Dx()); w < width {
		width = w
	}

	small, err := ResizeToWidth(img, width)
	if err != nil {
		return "", err
	}

	data, err := EncodeJPEG(small, quality)
	if err != nil {
		return "", err
	}

	return "data:" + MIMEJPEG + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// GenerateDominantColor resamples img down to a single pixel and formats it
// as rgba(r, g, b, a). The alpha component is the raw 0-255 channel value.
func GenerateDominantColor(img image.Image) string {
	pixel := resize.Resize(1, 1, img, resize.Lanczos3)
	c := color.NRGBAModel.Convert(pixel.At(pixel.Bounds().Min.X, pixel.Bounds().Min.Y)).(color.NRGBA)
	return fmt.Sprintf("rgba(%d, %d, %d, %d)", c.R, c.G, c.B, c.A)
}

// Generate runs exactly one generator, selected by kind.
func Generate(img image.Image, kind PlaceholderKind, quality int) (string, error) {
	switch kind {
	case PlaceholderLQIP:
		return GenerateLQIP(img, quality)
	case PlaceholderColor:
		return GenerateDominantColor(img), nil
	default:
		return "", apperrors.NewValidation(fmt.Sprintf("unknown placeholder kind %q", kind)).
			WithCode(apperrors.CodeInvalidConfig)
	}
}
