package catalog

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/json"
	"github.com/leeforge/assetpipe/media/asset"
	"github.com/leeforge/assetpipe/media/processor"
)

// ManifestVersion is bumped when the manifest layout changes.
const ManifestVersion = 1

// Manifest is the JSON form of a catalog.
type Manifest struct {
	Version     int                  `json:"version" default:"1"`
	BuildID     string               `json:"build_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Ladder      []uint32             `json:"ladder"`
	Images      []*asset.StaticImage `json:"images"`
	Pairs       []PairEntry          `json:"pairs,omitempty"`
}

// PairEntry refers to both images of a pair by identifier.
type PairEntry struct {
	ID    string `json:"id"`
	Light string `json:"light"`
	Dark  string `json:"dark"`
	Alt   string `json:"alt,omitempty"`
}

// Manifest snapshots the catalog with a fresh build id.
func (c *Catalog) Manifest() *Manifest {
	m := &Manifest{
		Version:     ManifestVersion,
		BuildID:     uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Ladder:      processor.Ladder(),
	}
	for _, img := range c.Images() {
		m.Images = append(m.Images, asset.Snapshot(img))
	}
	for _, p := range c.Pairs() {
		m.Pairs = append(m.Pairs, PairEntry{
			ID:    p.ID(),
			Light: p.Light().ID(),
			Dark:  p.Dark().ID(),
			Alt:   p.Alt(),
		})
	}
	return m
}

// WriteManifest encodes the catalog as indented JSON.
func (c *Catalog) WriteManifest(w io.Writer) (*Manifest, error) {
	m := c.Manifest()
	if err := json.NewDocumentEncoder(w).Encode(m); err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeEncode, "failed to encode manifest")
	}
	return m, nil
}

// ReadManifest loads a RunTime catalog of StaticImages. A manifest written
// against a different width ladder is rejected, since its srcsets would not
// match what the site expects.
func ReadManifest(r io.Reader) (*Catalog, *Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, nil, apperrors.WrapWithType(err, apperrors.ErrorTypeDecode, "failed to decode manifest")
	}
	if m.Version != ManifestVersion {
		return nil, nil, apperrors.NewValidation(fmt.Sprintf("unsupported manifest version %d", m.Version))
	}
	if !slices.Equal(m.Ladder, processor.Ladder()) {
		return nil, nil, apperrors.NewValidation("manifest was built with a different width ladder")
	}

	c := New(RunTime)
	for _, img := range m.Images {
		if err := img.Validate(); err != nil {
			return nil, nil, err
		}
		if err := c.AddImage(img); err != nil {
			return nil, nil, err
		}
	}
	for _, p := range m.Pairs {
		light, ok := c.Image(p.Light)
		if !ok {
			return nil, nil, apperrors.NewNotFound(p.Light).WithMessage("pair references unknown image")
		}
		dark, ok := c.Image(p.Dark)
		if !ok {
			return nil, nil, apperrors.NewNotFound(p.Dark).WithMessage("pair references unknown image")
		}
		pair, err := asset.NewLightDark(light, dark, p.Alt)
		if err != nil {
			return nil, nil, err
		}
		if err := c.AddLightDark(pair); err != nil {
			return nil, nil, err
		}
	}
	return c, &m, nil
}
