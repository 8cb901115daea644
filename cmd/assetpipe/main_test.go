package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/leeforge/assetpipe/config"
	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/logging"
	"github.com/leeforge/assetpipe/media/catalog"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	f, flags, err := parseFlags([]string{"--source", "art", "-j", "3", "--codegen", "gen/a.go"}, &bytes.Buffer{})
	require.NoError(t, err)

	p := config.Pipeline{}
	p.Images.OutputDir = "dist"
	p.Images.Placeholder = "color"
	applyFlags(&p, f, flags)

	assert.Equal(t, "art", p.Images.SourceDir)
	assert.Equal(t, 3, p.Images.Workers)
	assert.Equal(t, "dist", p.Images.OutputDir)
	assert.Equal(t, "color", p.Images.Placeholder)
	assert.True(t, p.Images.Codegen.Enabled)
	assert.Equal(t, "gen/a.go", p.Images.Codegen.Output)
}

func TestParseFlags_Unknown(t *testing.T) {
	_, _, err := parseFlags([]string{"--nope"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_BuildsManifestAndCode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "images")
	out := filepath.Join(dir, "dist")
	gen := filepath.Join(dir, "assets", "assets_gen.go")
	writePNG(t, filepath.Join(src, "hero.png"), 250, 100)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--config-dir", filepath.Join(dir, "config"),
		"--source", src,
		"--output", out,
		"--manifest", "-",
		"--codegen", gen,
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.FileExists(t, filepath.Join(out, "hero_100w.jpg"))
	assert.FileExists(t, filepath.Join(out, "hero_200w.jpg"))
	assert.NoFileExists(t, filepath.Join(out, "hero_300w.jpg"))

	cat, m, err := catalog.ReadManifest(&stdout)
	require.NoError(t, err)
	assert.Equal(t, catalog.ManifestVersion, m.Version)
	require.Equal(t, 1, cat.Len())

	code2, err := os.ReadFile(gen)
	require.NoError(t, err)
	assert.Contains(t, string(code2), "package assets")
	assert.Contains(t, string(code2), "/images/hero_200w.jpg")
}

func TestRun_MissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--config-dir", filepath.Join(dir, "config"),
		"--source", filepath.Join(dir, "missing"),
		"--output", filepath.Join(dir, "dist"),
	}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestReportFatal_LogsPath(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	reportFatal(logging.FromZap(zap.New(core)), apperrors.NewNotFound("hero.png"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "hero.png", fields["path"])
	assert.Equal(t, string(apperrors.ErrorTypeNotFound), fields["type"])
	assert.Contains(t, fields["error"], "not_found")
}
