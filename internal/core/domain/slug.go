package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var slugReplacer = strings.NewReplacer(
	", ", "__",
	" ", "_",
	"/", "_",
	"\\", "_",
)

// Slug returns the canonical filesystem-safe key for a destination.
// "Kyoto, Japan" becomes "kyoto__japan". Discovery, caching and export all
// key their files by this value.
func Slug(destination string) string {
	return slugReplacer.Replace(strings.ToLower(strings.TrimSpace(destination)))
}

// DisplayName turns a slug back into a readable destination name.
// "kyoto__japan" becomes "Kyoto, Japan".
func DisplayName(slug string) string {
	parts := strings.Split(strings.TrimSpace(slug), "__")
	for i, part := range parts {
		words := strings.Fields(strings.ReplaceAll(part, "_", " "))
		for j, w := range words {
			r, size := utf8.DecodeRuneInString(w)
			words[j] = string(unicode.ToUpper(r)) + w[size:]
		}
		parts[i] = strings.Join(words, " ")
	}
	return strings.Join(parts, ", ")
}
