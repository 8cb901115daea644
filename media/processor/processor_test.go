package processor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/assetpipe/errors"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLadder(t *testing.T) {
	rungs := Ladder()
	require.Len(t, rungs, 40)
	assert.Equal(t, uint32(100), rungs[0])
	assert.Equal(t, uint32(4000), rungs[len(rungs)-1])
	for i := 1; i < len(rungs); i++ {
		assert.Equal(t, rungs[i-1]+LadderStep, rungs[i])
	}
}

func TestAvailableWidths(t *testing.T) {
	tests := []struct {
		name  string
		width uint32
		want  int
		last  uint32
	}{
		{"narrower than ladder", 99, 0, 0},
		{"exactly one rung", 100, 1, 100},
		{"between rungs", 250, 2, 200},
		{"wide photo", 3584, 35, 3500},
		{"wider than ladder", 6000, 40, 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvailableWidths(tt.width)
			require.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.last, got[len(got)-1])
				for _, w := range got {
					assert.LessOrEqual(t, w, tt.width)
				}
			}
		})
	}
}

func TestScaledHeight(t *testing.T) {
	assert.Equal(t, uint32(65), ScaledHeight(3584, 2298, 100))
	assert.Equal(t, uint32(2298), ScaledHeight(3584, 2298, 3584))
	assert.Equal(t, uint32(50), ScaledHeight(200, 100, 100))
	assert.Equal(t, uint32(1), ScaledHeight(4000, 1, 100))
	assert.Equal(t, uint32(0), ScaledHeight(0, 10, 10))
}

func TestResizeToWidth(t *testing.T) {
	src := solid(300, 200, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	out, err := ResizeToWidth(src, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 67, out.Bounds().Dy())

	same, err := ResizeToWidth(src, 300)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds().Size(), same.Bounds().Size())
}

func TestResizeToWidth_RejectsUpscale(t *testing.T) {
	src := solid(100, 100, color.White)

	_, err := ResizeToWidth(src, 200)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUpscale, apperrors.FromError(err).Code)

	_, err = ResizeToWidth(src, 0)
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	data := encodePNG(t, solid(120, 80, color.Black))

	src, err := Decode("/abs/a.png", "a.png", data)
	require.NoError(t, err)
	assert.Equal(t, uint32(120), src.Width)
	assert.Equal(t, uint32(80), src.Height)
	assert.Equal(t, "image/png", src.MIME)
	assert.Equal(t, "a.png", src.RelPath)
}

func TestDecode_Failures(t *testing.T) {
	_, err := Decode("/abs/empty.jpg", "empty.jpg", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.New(apperrors.ErrorTypeDecode, "").WithCode(apperrors.CodeDecodeFailed)))

	_, err = Decode("/abs/bad.jpg", "bad.jpg", []byte("definitely not an image"))
	require.Error(t, err)
	assert.Equal(t, "bad.jpg", apperrors.FromError(err).Path())
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/png", DetectMIME(encodePNG(t, solid(2, 2, color.White))))
	assert.True(t, IsImageMIME("image/jpeg"))
	assert.False(t, IsImageMIME("image/svg+xml"))
	assert.False(t, IsImageMIME(DetectMIME([]byte("hello world"))))
}

func TestDecodeConfig(t *testing.T) {
	w, h, format, err := DecodeConfig(bytes.NewReader(encodePNG(t, solid(7, 3, color.White))))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), w)
	assert.Equal(t, uint32(3), h)
	assert.Equal(t, "png", format)
}

func TestEncodeJPEG_FlattensAlphaOntoWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))

	data, err := EncodeJPEG(img, 90)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(245))
	assert.Greater(t, g>>8, uint32(245))
	assert.Greater(t, b>>8, uint32(245))
}

func TestGenerateDominantColor(t *testing.T) {
	assert.Equal(t, "rgba(255, 0, 0, 255)", GenerateDominantColor(solid(10, 10, color.RGBA{R: 255, A: 255})))
}

func TestGenerateLQIP(t *testing.T) {
	uri, err := GenerateLQIP(solid(400, 200, color.RGBA{G: 128, A: 255}), DefaultQuality)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestGenerateLQIP_NarrowImage(t *testing.T) {
	uri, err := GenerateLQIP(solid(25, 25, color.White), DefaultQuality)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Width)
}

func TestGenerate(t *testing.T) {
	img := solid(50, 50, color.RGBA{B: 255, A: 255})

	c, err := Generate(img, PlaceholderColor, DefaultQuality)
	require.NoError(t, err)
	assert.Equal(t, "rgba(0, 0, 255, 255)", c)

	l, err := Generate(img, PlaceholderLQIP, DefaultQuality)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(l, "data:image/jpeg;base64,"))

	_, err = Generate(img, PlaceholderKind("blurhash"), DefaultQuality)
	assert.Error(t, err)
}

func TestParsePlaceholderKind(t *testing.T) {
	k, err := ParsePlaceholderKind(" LQIP ")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderLQIP, k)

	k, err = ParsePlaceholderKind("color")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderColor, k)

	_, err = ParsePlaceholderKind("colour")
	assert.Error(t, err)
}

func TestSourceImage_WithoutPixels(t *testing.T) {
	src, err := Decode("/abs/a.png", "a.png", encodePNG(t, solid(20, 10, color.Black)))
	require.NoError(t, err)

	light := src.WithoutPixels()
	assert.Nil(t, light.Image)
	assert.NotNil(t, src.Image)
	assert.Equal(t, src.Width, light.Width)
	assert.Equal(t, src.RelPath, light.RelPath)
}
