package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpperCamelCase(t *testing.T) {
	assert.Equal(t, "HeroShot", UpperCamelCase("hero_shot"))
	assert.Equal(t, "LogoDark", UpperCamelCase("logo_dark"))
	assert.Equal(t, "Team", UpperCamelCase("team"))
}

func TestExportedIdent(t *testing.T) {
	assert.Equal(t, "HeroShot", ExportedIdent("hero_shot", "Img"))
	assert.Equal(t, "Img404Page", ExportedIdent("404_page", "Img"))
	assert.Equal(t, "Img", ExportedIdent("___", "Img"))
	assert.Equal(t, "Café", ExportedIdent("café", "Img"))
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()

	ok, err := IsRegularFile(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = IsRegularFile(dir)
	require.NoError(t, err)
	assert.False(t, ok)

	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("images: {}"), 0o644))
	ok, err = IsRegularFile(file)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets", "gen", "assets_gen.go")

	require.NoError(t, WriteFileAtomic(path, []byte("package assets\n"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("package assets2\n"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package assets2\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
