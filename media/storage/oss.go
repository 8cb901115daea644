package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/gabriel-vasile/mimetype"
)

// listPageSize is the largest page ListObjectsV2 accepts.
const listPageSize = 1000

// OSSProvider stores build output in an Aliyun OSS bucket, optionally
// below a key prefix.
type OSSProvider struct {
	bucket *oss.Bucket
	prefix string
}

// NewOSSProvider creates a new OSS storage provider.
// Endpoint: oss-cn-hangzhou.aliyuncs.com
func NewOSSProvider(cfg OSSConfig) (*OSSProvider, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("oss provider requires endpoint and bucket")
	}

	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", cfg.Bucket, err)
	}

	return &OSSProvider{
		bucket: bucket,
		prefix: normalizePrefix(cfg.Prefix),
	}, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func (p *OSSProvider) objectKey(relPath string) (string, error) {
	key, err := cleanKey(relPath)
	if err != nil {
		return "", err
	}
	return p.prefix + key, nil
}

// List pages through every object under the prefix.
func (p *OSSProvider) List(ctx context.Context) ([]string, error) {
	var (
		files []string
		token string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		opts := []oss.Option{oss.Prefix(p.prefix), oss.MaxKeys(listPageSize)}
		if token != "" {
			opts = append(opts, oss.ContinuationToken(token))
		}

		result, err := p.bucket.ListObjectsV2(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to list OSS objects: %w", err)
		}
		for _, obj := range result.Objects {
			if strings.HasSuffix(obj.Key, "/") {
				continue
			}
			files = append(files, strings.TrimPrefix(obj.Key, p.prefix))
		}

		if !result.IsTruncated {
			return files, nil
		}
		token = result.NextContinuationToken
	}
}

// Read downloads an object.
func (p *OSSProvider) Read(ctx context.Context, relPath string) ([]byte, error) {
	key, err := p.objectKey(relPath)
	if err != nil {
		return nil, err
	}

	body, err := p.bucket.GetObject(key)
	if err != nil {
		return nil, fmt.Errorf("failed to download from OSS: %w", err)
	}
	defer body.Close()

	return io.ReadAll(body)
}

// Write uploads data. OSS has no directories, so there is nothing to create.
func (p *OSSProvider) Write(ctx context.Context, relPath string, data []byte) error {
	key, err := p.objectKey(relPath)
	if err != nil {
		return err
	}

	// The v3 SDK has no context-aware PutObject.
	if err := p.bucket.PutObject(key, bytes.NewReader(data), oss.ContentType(mimetype.Detect(data).String())); err != nil {
		return fmt.Errorf("failed to upload to OSS: %w", err)
	}
	return nil
}

func (p *OSSProvider) Name() string {
	return DriverOSS
}
