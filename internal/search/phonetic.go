package search

import "github.com/antzucaro/matchr"

// DoublePhonetic returns the Double Metaphone primary and alternate codes
// for name. Either may be empty, per spec.md §3.
func DoublePhonetic(name string) (primary, secondary string) {
	if name == "" {
		return "", ""
	}
	return matchr.DoubleMetaphone(name)
}

// SimilarityRatio returns an edit-distance-based similarity in [0, 100],
// the "standard edit-distance ratio" spec.md §4.7 calls for in the fuzzy
// fallback. It normalizes Levenshtein distance against the longer of the
// two folded strings.
func SimilarityRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 100
	}
	dist := matchr.Levenshtein(a, b)
	ratio := (1 - float64(dist)/float64(longest)) * 100
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}
