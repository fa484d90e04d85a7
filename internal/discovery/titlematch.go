// Package discovery implements the title-matching rule used at the
// boundary with the (out-of-scope, LLM-driven) alias-discovery
// collaborator named in spec.md §1, and by the catalogue collector when
// disambiguating search results. Grounded on the prototype's
// connectors/mal_connector.py matcher and spec.md §8 scenario 6 / §9's
// open question: substring containment is direction-agnostic, but an
// overlap shorter than 2 characters is rejected to avoid single-
// character false positives (e.g. "蓮" inside "蓮華").
package discovery

import "strings"

// minOverlapLen is the only documented fuzzy-matching contract in
// spec.md: matches below this length are false positives.
const minOverlapLen = 2

// TitleMatches reports whether a and b should be considered the same
// title: after lowering and trimming both strings, one must contain the
// other as a substring of at least minOverlapLen runes. Containment is
// direction-agnostic — either a being a substring of b, or b being a
// substring of a, counts.
func TitleMatches(a, b string) bool {
	na := normalize(a)
	nb := normalize(b)
	if len([]rune(na)) < minOverlapLen || len([]rune(nb)) < minOverlapLen {
		return false
	}

	shorter, longer := na, nb
	if len([]rune(na)) > len([]rune(nb)) {
		shorter, longer = nb, na
	}
	if len([]rune(shorter)) < minOverlapLen {
		return false
	}
	return strings.Contains(longer, shorter)
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
