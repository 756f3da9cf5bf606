package citation

import "strings"

// normalizeText lowercases and collapses all whitespace runs to
// single spaces, so near-duplicate detection ignores formatting
// differences between parser passes.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// trigramJaccard computes the Jaccard similarity of the character
// trigram sets of two normalized strings. Strings shorter than one
// trigram compare by equality.
func trigramJaccard(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 3 || len(b) < 3 {
		return 0
	}

	ta := trigramSet(a)
	tb := trigramSet(b)

	intersection := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			intersection++
		}
	}

	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func trigramSet(s string) map[string]struct{} {
	set := make(map[string]struct{}, len(s))
	for i := 0; i+3 <= len(s); i++ {
		set[s[i:i+3]] = struct{}{}
	}
	return set
}
