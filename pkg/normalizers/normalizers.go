// Package normalizers provides string normalization functions used for
// unique-name (slug) computation and match-tolerant lookups.
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("strip_diacritics", StripDiacritics)
	Register("remove_punctuation", RemovePunctuation)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("slug", Slug)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names are a no-op.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

var diacriticsRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics replaces accented characters with their base form
// ("Zäpfchen" becomes "Zapfchen"). Input that fails to transform is
// returned unchanged.
func StripDiacritics(s string) string {
	out, _, err := transform.String(diacriticsRemover, s)
	if err != nil {
		return s
	}
	return out
}

// RemovePunctuation removes all punctuation and symbol characters
func RemovePunctuation(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// CollapseWhitespace folds runs of whitespace into a single underscore
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

// Slug normalizes a display name into its slug form: trimmed, lowercased,
// diacritics stripped, punctuation removed, whitespace collapsed to
// underscores. "Der Standard" becomes "der_standard".
func Slug(s string) string {
	return ApplyChain(s, "trim", "lowercase", "strip_diacritics", "remove_punctuation", "collapse_whitespace")
}

// UniqueName derives the collision-resistant identifier for an entry from
// its name and any disambiguating context (country, channel, ...). Empty
// context parts are skipped.
func UniqueName(name string, context ...string) string {
	parts := []string{Slug(name)}
	for _, c := range context {
		if slug := Slug(c); slug != "" {
			parts = append(parts, slug)
		}
	}
	return strings.Join(parts, "_")
}
