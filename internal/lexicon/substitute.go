package lexicon

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// substituter applies a phrase table longest key first. Keys of equal length
// keep their table order.
type substituter struct {
	pairs []Pair
}

func newSubstituter(pairs []Pair) *substituter {
	sorted := slices.Clone(pairs)
	slices.SortStableFunc(sorted, func(a, b Pair) int {
		return utf8.RuneCountInString(b.From) - utf8.RuneCountInString(a.From)
	})
	return &substituter{pairs: sorted}
}

// apply runs every phrase over the text in turn. Each phrase sees the output
// of the previous ones, so a long phrase consumes the words a shorter one
// would otherwise have matched.
func (s *substituter) apply(text string) string {
	for _, p := range s.pairs {
		text = replaceWhole(text, p.From, p.To)
	}
	return text
}

// replaceWhole replaces every non-overlapping occurrence of phrase that is
// not glued to a word character on either side.
func replaceWhole(text, phrase, repl string) string {
	if phrase == "" || !strings.Contains(text, phrase) {
		return text
	}

	var (
		b        strings.Builder
		last     int
		pos      int
		replaced bool
	)
	for pos < len(text) {
		idx := strings.Index(text[pos:], phrase)
		if idx < 0 {
			break
		}
		start := pos + idx
		end := start + len(phrase)
		if !isBounded(text, start, end) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(repl)
		last, pos, replaced = end, end, true
	}
	if !replaced {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// isBounded reports whether text[start:end] stands as a whole word or phrase.
// The check only applies on a side where the match itself ends in a word
// character.
func isBounded(text string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(text[start:end])
	if isWordRune(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(prev) {
			return false
		}
	}
	lastRune, _ := utf8.DecodeLastRuneInString(text[start:end])
	if isWordRune(lastRune) && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

// isWordRune treats combining marks as word characters so Devanagari vowel
// signs never count as a boundary.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r)
}

var particles = []string{"मा", "को"}

// spaceParticles detaches the locative मा and genitive को from the word they
// are glued to, when the particle ends the word.
func spaceParticles(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 8)

	var prev rune
	for i := 0; i < len(text); {
		if p, ok := particleAt(text, i); ok && prev != 0 && !unicode.IsSpace(prev) {
			b.WriteByte(' ')
			b.WriteString(p)
			prev, _ = utf8.DecodeLastRuneInString(p)
			i += len(p)
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		prev = r
		i += size
	}
	return b.String()
}

func particleAt(text string, i int) (string, bool) {
	for _, p := range particles {
		if !strings.HasPrefix(text[i:], p) {
			continue
		}
		end := i + len(p)
		if end >= len(text) {
			return "", false
		}
		next, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsSpace(next) || strings.ContainsRune(".,!?;", next) {
			return p, true
		}
	}
	return "", false
}
