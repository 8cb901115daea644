package asset

import (
	"bytes"
	"html/template"
)

// ImgAttributes is the attribute set of an <img> element.
type ImgAttributes struct {
	Src    string
	Srcset string
	Sizes  string
	Width  uint32
	Height uint32
	Alt    string
	// Style paints the placeholder behind the image until it loads.
	Style template.CSS
}

var imgTemplate = template.Must(template.New("img").Parse(
	`<img src="{{.Src}}" srcset="{{.Srcset}}"{{if .Sizes}} sizes="{{.Sizes}}"{{end}} width="{{.Width}}" height="{{.Height}}" alt="{{.Alt}}" loading="lazy" decoding="async"{{if .Style}} style="{{.Style}}"{{end}}>`,
))

// ImgAttrs collects the attributes for img. sizes may be empty.
func ImgAttrs(img Image, sizes string) ImgAttributes {
	return ImgAttributes{
		Src:    img.Src(),
		Srcset: img.Srcset(),
		Sizes:  sizes,
		Width:  img.Width(),
		Height: img.Height(),
		Alt:    img.Alt(),
		Style:  placeholderStyle(img.Placeholder()),
	}
}

// ImgTag renders img as an escaped <img> element.
func ImgTag(img Image, sizes string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := imgTemplate.Execute(&buf, ImgAttrs(img, sizes)); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// placeholderStyle values come from the pipeline itself, never from
// untrusted input, so they are marked safe CSS.
func placeholderStyle(p Placeholder) template.CSS {
	if uri, ok := p.DataURI(); ok {
		return template.CSS("background-image:url(" + uri + ");background-size:cover")
	}
	if css, ok := p.CSS(); ok {
		return template.CSS("background-color:" + css)
	}
	return ""
}
