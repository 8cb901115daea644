package codegen

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/media/asset"
	"github.com/leeforge/assetpipe/media/catalog"
	"github.com/leeforge/assetpipe/media/processor"
)

func image(id, rel string, width uint32, ph asset.Placeholder) *asset.StaticImage {
	img := &asset.StaticImage{
		Identifier:      id,
		Path:            rel,
		OriginalWidth:   width,
		OriginalHeight:  width / 2,
		AltText:         `A "quoted" alt`,
		PlaceholderData: ph,
	}
	for _, p := range asset.VariantPaths(rel, processor.AvailableWidths(width), "/images") {
		img.Variants = append(img.Variants, asset.Source{Width: p.Width, Height: p.Width / 2, URL: p.URL, MIME: processor.MIMEJPEG})
	}
	return img
}

func TestGenerate(t *testing.T) {
	cat := catalog.New(catalog.BuildTime)
	require.NoError(t, cat.AddImage(image("hero_shot", "hero-shot.png", 200, asset.NewColor("rgba(1, 2, 3, 255)"))))
	require.NoError(t, cat.AddImage(image("404", "404.png", 100, asset.NewLQIP("data:image/jpeg;base64,AA=="))))
	require.NoError(t, cat.AddImage(image("logo_light", "logo-light.png", 100, asset.NewColor("x"))))
	require.NoError(t, cat.AddImage(image("logo_dark", "logo-dark.png", 100, asset.NewColor("y"))))

	light, _ := cat.Image("logo_light")
	dark, _ := cat.Image("logo_dark")
	pair, err := asset.NewLightDark(light, dark, "Logo")
	require.NoError(t, err)
	require.NoError(t, cat.AddLightDark(pair))

	src, err := Generate(cat, Options{Package: "siteassets"})
	require.NoError(t, err)

	file, err := parser.ParseFile(token.NewFileSet(), "assets.go", src, parser.ParseComments)
	require.NoError(t, err)
	assert.Equal(t, "siteassets", file.Name.Name)

	code := string(src)
	assert.True(t, strings.HasPrefix(code, "// Code generated by assetpipe. DO NOT EDIT."))
	assert.Regexp(t, `HeroShot\s+= &Image\{`, code)
	assert.Regexp(t, `Img404\s+= &Image\{`, code)
	assert.Contains(t, code, `"/images/hero-shot_100w.jpg 100w, /images/hero-shot_200w.jpg 200w"`)
	assert.Contains(t, code, `"A \"quoted\" alt"`)
	assert.Regexp(t, `LogoLightPair\s+= &LightDark\{Light: LogoLight, Dark: LogoDark`, code)
	assert.Regexp(t, `"hero_shot":\s+HeroShot,`, code)
}

func TestGenerate_EmptyCatalog(t *testing.T) {
	src, err := Generate(catalog.New(catalog.BuildTime), Options{})
	require.NoError(t, err)

	file, err := parser.ParseFile(token.NewFileSet(), "assets.go", src, 0)
	require.NoError(t, err)
	assert.Equal(t, "assets", file.Name.Name)
}

func TestGenerate_NameCollision(t *testing.T) {
	cat := catalog.New(catalog.BuildTime)
	require.NoError(t, cat.AddImage(image("a_b", "a-b.png", 100, asset.NewColor("x"))))
	require.NoError(t, cat.AddImage(image("a__b", "a  b.png", 100, asset.NewColor("x"))))

	_, err := Generate(cat, Options{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.FromError(err).Type)
}
