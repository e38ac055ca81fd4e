// Package placeholder protects URLs and email addresses during translation by
// replacing them with short tokens (u1, u2, …) that a translation model
// leaves untouched. After translation, Unmask substitutes the originals back.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// reLink matches web addresses and email-like literals.
	reLink = regexp.MustCompile(`\b(?:https?://|www\.)\S+|\S+@\S+\.\S+`)

	// reToken matches placeholder tokens in translated text.
	reToken = regexp.MustCompile(`u\d+`)

	reWholeToken = regexp.MustCompile(`^u\d+$`)
)

// Placeholder pairs a token with the literal it stands for.
type Placeholder struct {
	Token    string `json:"token"`
	Original string `json:"original"`
}

// Map is the ordered list of placeholders created by Mask, in order of first
// appearance in the source text.
type Map []Placeholder

// Lookup returns the original literal for token.
func (m Map) Lookup(token string) (string, bool) {
	for _, p := range m {
		if p.Token == token {
			return p.Original, true
		}
	}
	return "", false
}

// AsStrings flattens the map into token → original, for debug output.
func (m Map) AsStrings() map[string]string {
	out := make(map[string]string, len(m))
	for _, p := range m {
		out[p.Token] = p.Original
	}
	return out
}

// Mask finds every URL/email literal in text and replaces it with u1, u2, …
// Each match is replaced at its first remaining occurrence only, one match at
// a time, so a literal that occurs twice is matched (and replaced) twice.
func Mask(text string) (string, Map) {
	matches := reLink.FindAllString(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	m := make(Map, 0, len(matches))
	for i, match := range matches {
		token := fmt.Sprintf("u%d", i+1)
		m = append(m, Placeholder{Token: token, Original: match})
		text = strings.Replace(text, match, token, 1)
	}
	return text, m
}

// Unmask restores the literals captured by Mask. When m is non-empty the text
// is lower-cased first, then every token that is not glued to a neighbouring
// letter or digit is replaced with its original literal in a single pass, so
// restored literals are never rescanned. Unknown tokens are left as-is.
func Unmask(text string, m Map) string {
	if len(m) == 0 {
		return text
	}
	text = cases.Lower(language.Und).String(text)

	locs := reToken.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if !isStandalone(text, loc[0], loc[1]) {
			continue
		}
		original, ok := m.Lookup(text[loc[0]:loc[1]])
		if !ok {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(original)
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// IsToken reports whether s is exactly one placeholder token.
func IsToken(s string) bool {
	return reWholeToken.MatchString(s)
}

// Missing returns the tokens of m that do not appear in text.
func Missing(text string, m Map) []string {
	lower := strings.ToLower(text)
	var missing []string
	for _, p := range m {
		if !strings.Contains(lower, p.Token) {
			missing = append(missing, p.Token)
		}
	}
	return missing
}

// isStandalone reports whether s[start:end] is not part of a longer word,
// so that u1 never rewrites the head of u12.
func isStandalone(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if unicode.IsDigit(r) || unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
