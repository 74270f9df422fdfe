package matchers

import (
	"strings"
	"unicode"
)

// NormalizeTitle lowercases a listing title and strips everything that is
// not a letter or digit, collapsing runs into single spaces. Reposted
// listings usually differ only in punctuation, spacing or emoji.
func NormalizeTitle(title string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Similarity returns a [0,1] score for two titles using the Dice
// coefficient over normalized tokens. Korean titles are often written
// without spaces, so single-token titles fall back to character bigrams.
func Similarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	sa, sb := tokenSet(na), tokenSet(nb)
	if len(sa) < 2 || len(sb) < 2 {
		sa, sb = bigramSet(na), bigramSet(nb)
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	common := 0
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			common++
		}
	}
	return 2 * float64(common) / float64(len(sa)+len(sb))
}

// ContainsAny reports whether text contains any of the given substrings,
// case-insensitively.
func ContainsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func bigramSet(s string) map[string]struct{} {
	runes := []rune(strings.ReplaceAll(s, " ", ""))
	set := make(map[string]struct{})
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}
