package catalog

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/json"
	"github.com/leeforge/assetpipe/media/asset"
	"github.com/leeforge/assetpipe/media/processor"
)

func static(id, rel string, ph asset.Placeholder, widths ...uint32) *asset.StaticImage {
	img := &asset.StaticImage{
		Identifier:      id,
		Path:            rel,
		OriginalWidth:   widths[len(widths)-1],
		OriginalHeight:  100,
		PlaceholderData: ph,
	}
	for _, p := range asset.VariantPaths(rel, widths, "/images") {
		img.Variants = append(img.Variants, asset.Source{Width: p.Width, Height: 50, URL: p.URL, MIME: processor.MIMEJPEG})
	}
	return img
}

func populated(t *testing.T) *Catalog {
	t.Helper()
	c := New(BuildTime)
	color := asset.NewColor("rgba(0, 0, 0, 255)")
	require.NoError(t, c.AddImage(static("zebra", "zebra.png", color, 100, 200)))
	require.NoError(t, c.AddImage(static("logo_light", "brand/logo-light.png", color, 100)))
	require.NoError(t, c.AddImage(static("logo_dark", "brand/logo-dark.png", color, 100)))

	light, _ := c.Image("logo_light")
	dark, _ := c.Image("logo_dark")
	pair, err := asset.NewLightDark(light, dark, "Logo")
	require.NoError(t, err)
	require.NoError(t, c.AddLightDark(pair))
	return c
}

func TestCatalog_OrderedEnumeration(t *testing.T) {
	c := populated(t)

	var ids []string
	for _, img := range c.Images() {
		ids = append(ids, img.ID())
	}
	assert.Equal(t, []string{"logo_dark", "logo_light", "zebra"}, ids)
	require.Len(t, c.Pairs(), 1)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, BuildTime, c.Mode())

	img, ok := c.ImageByPath("brand/logo-dark.png")
	require.True(t, ok)
	assert.Equal(t, "logo_dark", img.ID())
}

func TestCatalog_DuplicateIdentifier(t *testing.T) {
	c := New(BuildTime)
	color := asset.NewColor("rgba(0, 0, 0, 255)")
	require.NoError(t, c.AddImage(static("hero", "a/hero.png", color, 100)))

	err := c.AddImage(static("hero", "b/hero.jpg", color, 100))
	require.Error(t, err)
	appErr := apperrors.FromError(err)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	assert.Equal(t, apperrors.CodeDuplicateAsset, appErr.Code)
	assert.Equal(t, "b/hero.jpg", appErr.Path())
}

func TestManifest_RoundTrip(t *testing.T) {
	c := populated(t)

	var buf bytes.Buffer
	written, err := c.WriteManifest(&buf)
	require.NoError(t, err)
	_, err = uuid.Parse(written.BuildID)
	assert.NoError(t, err)

	loaded, m, err := ReadManifest(&buf)
	require.NoError(t, err)
	assert.Equal(t, RunTime, loaded.Mode())
	assert.Equal(t, written.BuildID, m.BuildID)
	require.Equal(t, c.Len(), loaded.Len())

	for _, orig := range c.Images() {
		got, ok := loaded.Image(orig.ID())
		require.True(t, ok, orig.ID())
		assert.Equal(t, orig.Srcset(), got.Srcset())
		assert.Equal(t, orig.Src(), got.Src())
		assert.Equal(t, orig.Placeholder(), got.Placeholder())
	}

	pair, ok := loaded.LightDark("logo_light")
	require.True(t, ok)
	assert.Equal(t, "logo_dark", pair.Dark().ID())
	assert.Equal(t, "Logo", pair.Alt())
}

func TestReadManifest_RejectsForeignLadder(t *testing.T) {
	in := `{"version":1,"build_id":"x","ladder":[100,300],"images":[]}`
	_, _, err := ReadManifest(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ladder")
}

func TestReadManifest_RejectsEmptyVariants(t *testing.T) {
	in := `{"version":1,"ladder":` + ladderJSON() + `,"images":[` +
		`{"id":"a","path":"a.png","width":50,"height":50,"variants":[],"placeholder":{"kind":"color","value":"x"}}]}`

	_, _, err := ReadManifest(strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNoVariants))
}

func TestReadManifest_UnknownPairMember(t *testing.T) {
	c := New(BuildTime)
	require.NoError(t, c.AddImage(static("a", "a.png", asset.NewColor("x"), 100)))
	m := c.Manifest()
	m.Pairs = []PairEntry{{ID: "a", Light: "a", Dark: "missing"}}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	_, _, err = ReadManifest(bytes.NewReader(data))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.FromError(err).Type)
}

func TestReadManifest_Garbage(t *testing.T) {
	_, _, err := ReadManifest(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeDecode, apperrors.FromError(err).Type)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "build", BuildTime.String())
	assert.Equal(t, "run", RunTime.String())
}

func ladderJSON() string {
	parts := make([]string, 0, len(processor.Ladder()))
	for _, w := range processor.Ladder() {
		parts = append(parts, strconv.FormatUint(uint64(w), 10))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
