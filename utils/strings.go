package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UpperCamelCase converts snake_case to UpperCamelCase.
// Example: "hero_shot_2x" -> "HeroShot2x"
func UpperCamelCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	c := cases.Title(language.English)
	s = c.String(s)
	return strings.ReplaceAll(s, " ", "")
}

// ExportedIdent returns an exported Go identifier for a snake_case name.
// Names that would be empty or start with a non-letter get prefix.
func ExportedIdent(s, prefix string) string {
	ident := UpperCamelCase(s)
	if ident == "" {
		return prefix
	}
	first := []rune(ident)[0]
	if !unicode.IsLetter(first) || !unicode.IsUpper(first) {
		return prefix + ident
	}
	return ident
}
