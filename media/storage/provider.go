package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Provider is the build output store. Paths are slash-separated and
// relative to the store root.
type Provider interface {
	// List returns every file path currently in the store.
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, relPath string) ([]byte, error)
	// Write stores data at relPath, creating parent directories as needed.
	// A reader never observes a partially written file.
	Write(ctx context.Context, relPath string, data []byte) error
	Name() string
}

// Driver names accepted by NewFromConfig.
const (
	DriverLocal = "local"
	DriverOSS   = "oss"
)

// OSSConfig holds the Aliyun OSS connection settings.
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id" yaml:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret" json:"-" yaml:"access_key_secret"`
	Bucket          string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	Prefix          string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
}

// Config selects and configures a provider.
type Config struct {
	Driver string    `mapstructure:"driver" json:"driver" yaml:"driver" default:"local" validate:"oneof=local oss"`
	OSS    OSSConfig `mapstructure:"oss" json:"oss" yaml:"oss"`
}

// NewFromConfig creates the provider named by cfg.Driver. localRoot is the
// output directory used by the local driver.
func NewFromConfig(cfg Config, localRoot string) (Provider, error) {
	switch cfg.Driver {
	case "", DriverLocal:
		return NewLocalProvider(localRoot)
	case DriverOSS:
		return NewOSSProvider(cfg.OSS)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// cleanKey normalises relPath into a slash-separated key without a leading
// slash. It rejects keys escaping the store root.
func cleanKey(relPath string) (string, error) {
	key := path.Clean("/" + strings.ReplaceAll(relPath, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("invalid store path %q", relPath)
	}
	return key, nil
}
