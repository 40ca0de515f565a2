package gallery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel folds a label for comparison: no diacritics, lower case,
// dashes and underscores as spaces, runs of spaces collapsed.
func NormalizeLabel(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, _ := transform.String(t, label)
	folded = strings.ToLower(folded)
	folded = strings.NewReplacer("-", " ", "_", " ").Replace(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// DuplicatePair is two reference labels that normalize to the same name.
type DuplicatePair struct {
	First  string
	Second string
}

// FindDuplicates reports references whose labels collide after
// normalization. Duplicates are allowed but usually mean the same person
// was enrolled twice under slightly different spellings.
func FindDuplicates(refs []Reference) []DuplicatePair {
	seen := make(map[string]string, len(refs))
	var pairs []DuplicatePair

	for _, ref := range refs {
		key := NormalizeLabel(ref.Label)
		if first, ok := seen[key]; ok {
			pairs = append(pairs, DuplicatePair{First: first, Second: ref.Label})
			continue
		}
		seen[key] = ref.Label
	}

	return pairs
}
