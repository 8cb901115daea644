// Package catalog is the enumerable collection of built assets. It replaces
// a process-wide registry: callers build one, pass it to templates, and can
// persist it as a manifest.
package catalog

import (
	"fmt"
	"sort"

	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/media/asset"
)

// Mode records whether a catalog holds freshly built images or descriptors
// loaded from a manifest.
type Mode int

const (
	BuildTime Mode = iota
	RunTime
)

func (m Mode) String() string {
	switch m {
	case BuildTime:
		return "build"
	case RunTime:
		return "run"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Catalog maps identifiers to images and light/dark pairs. It is filled
// once by a single goroutine and read freely afterwards.
type Catalog struct {
	mode   Mode
	images map[string]asset.Image
	pairs  map[string]*asset.LightDark
}

func New(mode Mode) *Catalog {
	return &Catalog{
		mode:   mode,
		images: make(map[string]asset.Image),
		pairs:  make(map[string]*asset.LightDark),
	}
}

func (c *Catalog) Mode() Mode {
	return c.mode
}

// AddImage registers img under its identifier. Two sources that sanitize to
// the same identifier are a conflict.
func (c *Catalog) AddImage(img asset.Image) error {
	if prev, ok := c.images[img.ID()]; ok {
		return apperrors.NewConflict(img.ID(), img.RelPath()).WithDetail("existing", prev.RelPath())
	}
	c.images[img.ID()] = img
	return nil
}

// AddLightDark registers a pair under its own identifier space.
func (c *Catalog) AddLightDark(pair *asset.LightDark) error {
	if _, ok := c.pairs[pair.ID()]; ok {
		return apperrors.NewConflict(pair.ID(), pair.Light().RelPath())
	}
	c.pairs[pair.ID()] = pair
	return nil
}

func (c *Catalog) Image(id string) (asset.Image, bool) {
	img, ok := c.images[id]
	return img, ok
}

// ImageByPath finds an image by its path relative to the source root.
func (c *Catalog) ImageByPath(rel string) (asset.Image, bool) {
	for _, img := range c.images {
		if img.RelPath() == rel {
			return img, true
		}
	}
	return nil, false
}

func (c *Catalog) LightDark(id string) (*asset.LightDark, bool) {
	pair, ok := c.pairs[id]
	return pair, ok
}

// Images returns every image sorted by identifier.
func (c *Catalog) Images() []asset.Image {
	out := make([]asset.Image, 0, len(c.images))
	for _, img := range c.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Pairs returns every light/dark pair sorted by identifier.
func (c *Catalog) Pairs() []*asset.LightDark {
	out := make([]*asset.LightDark, 0, len(c.pairs))
	for _, p := range c.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (c *Catalog) Len() int {
	return len(c.images)
}
