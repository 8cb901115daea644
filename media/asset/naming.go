package asset

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// VariantPath is where one rung of the ladder is stored and served.
type VariantPath struct {
	Width   uint32
	RelPath string
	URL     string
}

// Identifier turns a file stem into a source-code identifier by replacing
// every rune that is not a letter, a digit or '_' with '_'.
func Identifier(stem string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, stem)
}

// Stem returns the file name of rel without its extension.
func Stem(rel string) string {
	base := path.Base(toSlash(rel))
	return strings.TrimSuffix(base, path.Ext(base))
}

// VariantPaths names the output of each width:
// <rel_without_ext>_<w>w.jpg, served under urlPrefix. Each URL segment is
// escaped, so a name with a space or a comma stays one srcset candidate.
func VariantPaths(rel string, widths []uint32, urlPrefix string) []VariantPath {
	rel = strings.TrimPrefix(toSlash(rel), "/")
	base := strings.TrimSuffix(rel, path.Ext(rel))
	prefix := strings.TrimRight(urlPrefix, "/")

	paths := make([]VariantPath, 0, len(widths))
	for _, w := range widths {
		out := base + "_" + strconv.FormatUint(uint64(w), 10) + "w.jpg"
		paths = append(paths, VariantPath{
			Width:   w,
			RelPath: out,
			URL:     prefix + "/" + escapePath(out),
		})
	}
	return paths
}

func escapePath(rel string) string {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
