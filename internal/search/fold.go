package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks after NFKD (compatibility)
// decomposition, the "unaccent" convention spec.md §3 calls for, then
// relies on the caller to lower-case the result. Compatibility
// decomposition also folds ligatures and other compatibility forms that
// canonical NFD leaves untouched.
var foldTransformer = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFKC,
)

// Fold transliterates name to ASCII by compatibility decomposition and
// diacritic removal, then lower-cases it. "Sigur Rós" and "Sigur Ros" fold
// to the same string.
func Fold(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
