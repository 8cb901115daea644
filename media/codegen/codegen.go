// Package codegen renders a catalog as Go source, so a site binary can
// reference images as typed variables instead of string lookups.
package codegen

import (
	"bytes"
	"go/format"
	"strconv"
	"text/template"

	apperrors "github.com/leeforge/assetpipe/errors"
	"github.com/leeforge/assetpipe/media/catalog"
	"github.com/leeforge/assetpipe/utils"
)

// Options controls the generated file.
type Options struct {
	Package string
	// Prefix is prepended to identifiers that do not start with a letter.
	Prefix string
}

type imageData struct {
	Var         string
	ID          string
	Src         string
	Srcset      string
	Width       uint32
	Height      uint32
	Alt         string
	Placeholder string
	Kind        string
}

type pairData struct {
	Var   string
	Light string
	Dark  string
	Alt   string
}

type fileData struct {
	Package string
	Images  []imageData
	Pairs   []pairData
}

var fileTemplate = template.Must(template.New("assets").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`// Code generated by assetpipe. DO NOT EDIT.

package {{.Package}}

// Image is a responsive image produced at build time.
type Image struct {
	ID              string
	Src             string
	Srcset          string
	Width           uint32
	Height          uint32
	Alt             string
	Placeholder     string
	PlaceholderKind string
}

// LightDark pairs the light and dark renditions of one picture.
type LightDark struct {
	Light *Image
	Dark  *Image
	Alt   string
}

{{if .Images}}var (
{{- range .Images}}
	{{.Var}} = &Image{
		ID: {{quote .ID}},
		Src: {{quote .Src}},
		Srcset: {{quote .Srcset}},
		Width: {{.Width}},
		Height: {{.Height}},
		Alt: {{quote .Alt}},
		Placeholder: {{quote .Placeholder}},
		PlaceholderKind: {{quote .Kind}},
	}
{{- end}}
)
{{end}}
{{if .Pairs}}var (
{{- range .Pairs}}
	{{.Var}} = &LightDark{Light: {{.Light}}, Dark: {{.Dark}}, Alt: {{quote .Alt}}}
{{- end}}
)
{{end}}
// Images lists every image by identifier.
var Images = map[string]*Image{
{{- range .Images}}
	{{quote .ID}}: {{.Var}},
{{- end}}
}
`))

// Generate renders cat as a gofmt'ed Go file.
func Generate(cat *catalog.Catalog, opts Options) ([]byte, error) {
	if opts.Package == "" {
		opts.Package = "assets"
	}
	if opts.Prefix == "" {
		opts.Prefix = "Img"
	}

	data := fileData{Package: opts.Package}
	taken := map[string]string{"Image": "", "LightDark": "", "Images": ""}
	claim := func(name, id string) error {
		if owner, ok := taken[name]; ok {
			return apperrors.New(apperrors.ErrorTypeConflict,
				"generated name "+name+" for "+strconv.Quote(id)+" collides with "+strconv.Quote(owner)).
				WithCode(apperrors.CodeDuplicateAsset)
		}
		taken[name] = id
		return nil
	}

	vars := make(map[string]string)
	for _, img := range cat.Images() {
		name := utils.ExportedIdent(img.ID(), opts.Prefix)
		if err := claim(name, img.ID()); err != nil {
			return nil, err
		}
		vars[img.ID()] = name
		ph := img.Placeholder()
		data.Images = append(data.Images, imageData{
			Var:         name,
			ID:          img.ID(),
			Src:         img.Src(),
			Srcset:      img.Srcset(),
			Width:       img.Width(),
			Height:      img.Height(),
			Alt:         img.Alt(),
			Placeholder: ph.Value,
			Kind:        string(ph.Kind),
		})
	}

	for _, p := range cat.Pairs() {
		name := utils.ExportedIdent(p.ID(), opts.Prefix) + "Pair"
		if err := claim(name, p.ID()); err != nil {
			return nil, err
		}
		data.Pairs = append(data.Pairs, pairData{
			Var:   name,
			Light: vars[p.Light().ID()],
			Dark:  vars[p.Dark().ID()],
			Alt:   p.Alt(),
		})
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "failed to render generated code")
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "generated code does not parse")
	}
	return src, nil
}
