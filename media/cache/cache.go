// Package cache memoizes encoded variants against the build output store.
//
// The snapshot is taken once at construction and never refreshed, so a
// path is considered fresh purely by presence. A changed source with an
// unchanged name keeps its stale variants until the output is cleaned.
package cache

import (
	"context"
	"sync/atomic"

	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/media/storage"
)

// BuildCache answers "does this output already exist" from a snapshot.
// The snapshot is read-only after New, so lookups need no locking.
type BuildCache struct {
	store    storage.Provider
	existing map[string]struct{}

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats counts lookups made through Materialize.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Snapshot int   `json:"snapshot"`
}

// New lists store once and remembers every path it returned.
func New(ctx context.Context, store storage.Provider) (*BuildCache, error) {
	paths, err := store.List(ctx)
	if err != nil {
		return nil, apperrors.NewIO(store.Name(), err).WithMessage("failed to snapshot build output")
	}

	existing := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		existing[p] = struct{}{}
	}
	return &BuildCache{store: store, existing: existing}, nil
}

// NeedsWrite reports whether relPath was absent when the snapshot was taken.
func (c *BuildCache) NeedsWrite(relPath string) bool {
	_, ok := c.existing[relPath]
	return !ok
}

// Materialize returns the bytes stored at relPath. On a hit they are read
// back from the store; on a miss encode runs and its output is written.
// The bool result reports a hit.
func (c *BuildCache) Materialize(ctx context.Context, relPath string, encode func() ([]byte, error)) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if !c.NeedsWrite(relPath) {
		data, err := c.store.Read(ctx, relPath)
		if err != nil {
			return nil, true, apperrors.NewIO(relPath, err)
		}
		c.hits.Add(1)
		return data, true, nil
	}

	data, err := encode()
	if err != nil {
		return nil, false, err
	}
	if err := c.store.Write(ctx, relPath, data); err != nil {
		return nil, false, apperrors.NewIO(relPath, err)
	}
	c.misses.Add(1)
	return data, false, nil
}

// Stats returns the hit/miss counters.
func (c *BuildCache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Snapshot: len(c.existing),
	}
}
