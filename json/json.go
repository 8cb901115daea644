// Package json is the JSON codec for build documents such as the asset
// manifest. It runs json-iterator in standard-library mode and fills
// `default:"..."` struct tags before encoding or decoding, so a document
// missing a field reads back with its default.
package json

import (
	"io"

	"github.com/creasty/defaults"
	jsoniter "github.com/json-iterator/go"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// DocumentIndent is the indent of documents written by NewDocumentEncoder.
const DocumentIndent = "  "

func withDefaults(v any) error {
	return defaults.Set(v)
}

type Encoder struct {
	*jsoniter.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{Encoder: api.NewEncoder(w)}
}

// NewDocumentEncoder returns an encoder for human-diffable documents:
// indented, with URLs and data URIs left unescaped.
func NewDocumentEncoder(w io.Writer) *Encoder {
	enc := NewEncoder(w)
	enc.SetIndent("", DocumentIndent)
	enc.SetEscapeHTML(false)
	return enc
}

// Encode fills defaults on v, then encodes it. v must be a struct pointer.
func (e *Encoder) Encode(v any) error {
	if err := withDefaults(v); err != nil {
		return err
	}
	return e.Encoder.Encode(v)
}

type Decoder struct {
	*jsoniter.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{Decoder: api.NewDecoder(r)}
}

// Decode fills defaults on v before decoding into it, so absent fields
// keep their defaults while explicit zeros in the input win.
func (d *Decoder) Decode(v any) error {
	if err := withDefaults(v); err != nil {
		return err
	}
	return d.Decoder.Decode(v)
}

func Marshal(v any) ([]byte, error) {
	if err := withDefaults(v); err != nil {
		return nil, err
	}
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	if err := withDefaults(v); err != nil {
		return nil, err
	}
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	if err := withDefaults(v); err != nil {
		return err
	}
	return api.Unmarshal(data, v)
}
