package lexicon

import "strings"

// maxFuzzyDistance is the largest edit distance at which a token is still
// taken for a misspelt romanized variant.
const maxFuzzyDistance = 1

type variantEntry struct {
	spelling string
	nepali   string
}

// fuzzyIndex recovers canonical Nepali words from romanized tokens that are
// close to, but not exactly, a known spelling.
type fuzzyIndex struct {
	entries []variantEntry
}

// lookup returns the canonical word of the closest variant within
// maxFuzzyDistance. Ties go to the variant that appears first in the table.
func (f *fuzzyIndex) lookup(token string) (string, bool) {
	best, bestDist := "", maxFuzzyDistance+1
	for _, e := range f.entries {
		if abs(len([]rune(e.spelling))-len([]rune(token))) > maxFuzzyDistance {
			continue
		}
		d := levenshtein(token, e.spelling)
		if d < bestDist {
			best, bestDist = e.nepali, d
			if d == 0 {
				break
			}
		}
	}
	return best, bestDist <= maxFuzzyDistance
}

// replace rewrites every whitespace-separated token that carries Latin
// letters. The result is re-joined with single spaces.
func (f *fuzzyIndex) replace(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		if !hasASCIILetter(w) {
			continue
		}
		if nepali, ok := f.lookup(w); ok {
			words[i] = nepali
		}
	}
	return strings.Join(words, " ")
}

func hasASCIILetter(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			return true
		}
	}
	return false
}

// levenshtein returns the rune-aware edit distance between a and b using two
// DP rows.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = min(prev[j], prev[j-1], curr[j-1]) + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
