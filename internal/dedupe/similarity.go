package dedupe

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two payee strings in [0, 1]. The score is the better
// of a normalized edit-distance comparison and a token-overlap comparison,
// both over cleaned strings, so "WHOLE FOODS #123" vs "Whole Foods 123"
// (formatting noise) and "STARBUCKS STORE 08421" vs "Starbucks" (trailing
// location junk) both land at or near 1.
func Similarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" && nb == "" {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	edit := editSimilarity(na, nb)
	tok := tokenOverlap(strings.Fields(na), strings.Fields(nb))
	if tok > edit {
		return tok
	}
	return edit
}

// normalize lowercases, strips everything outside a-z0-9, and collapses
// whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func editSimilarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// tokenOverlap is the overlap coefficient: shared tokens over the smaller
// token set. A payee that is a subset of the other ("starbucks" inside
// "starbucks store 08421") scores 1.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, tok := range a {
		set[tok] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(b))
	for _, tok := range b {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := set[tok]; ok {
			shared++
		}
	}
	smaller := len(set)
	if len(seen) < smaller {
		smaller = len(seen)
	}
	return float64(shared) / float64(smaller)
}
