package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/leeforge/assetpipe/utils"
)

// LocalProvider stores build output on the local filesystem.
type LocalProvider struct {
	basePath string
}

// NewLocalProvider creates a new local storage provider rooted at basePath.
func NewLocalProvider(basePath string) (*LocalProvider, error) {
	if basePath == "" {
		return nil, fmt.Errorf("local provider requires a base path")
	}
	// Ensure base directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalProvider{basePath: basePath}, nil
}

// BasePath returns the directory the provider writes under.
func (p *LocalProvider) BasePath() string {
	return p.basePath
}

func (p *LocalProvider) fullPath(relPath string) (string, error) {
	key, err := cleanKey(relPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.basePath, filepath.FromSlash(key)), nil
}

// List walks the base directory and returns every regular file. Hidden
// names, such as the temporary files of an interrupted Write, are left out.
func (p *LocalProvider) List(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(p.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(p.basePath, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}
	return files, nil
}

// Read returns the content of a stored file.
func (p *LocalProvider) Read(ctx context.Context, relPath string) ([]byte, error) {
	fullPath, err := p.fullPath(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Write saves data through a temporary file renamed into place, so an
// interrupted write never leaves a truncated file under relPath.
func (p *LocalProvider) Write(ctx context.Context, relPath string, data []byte) error {
	fullPath, err := p.fullPath(relPath)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file content: %w", err)
	}
	return nil
}

func (p *LocalProvider) Name() string {
	return DriverLocal
}
