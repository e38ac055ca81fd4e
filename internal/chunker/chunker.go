// Package chunker splits a translation unit that is too long for the model
// into smaller pieces. Units reach it already free of sentence delimiters,
// so it prefers clause boundaries (danda, semicolon, comma) and then plain
// word boundaries.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultMaxRunes keeps a unit well inside the 1024-token window of NLLB
// models.
const DefaultMaxRunes = 400

// clauseEnds are the characters after which a unit may be cut, strongest
// first.
var clauseEnds = []rune{'।', ';', ','}

// Chunk splits text into pieces of at most maxRunes code points. Each cut is
// made, in order of preference:
//  1. after a clause end followed by whitespace
//  2. at whitespace
//  3. at maxRunes when a single word is longer than that
//
// Pieces are trimmed. maxRunes <= 0 disables chunking.
func Chunk(text string, maxRunes int) []string {
	runes := []rune(strings.TrimSpace(text))
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return []string{string(runes)}
	}

	var chunks []string
	for len(runes) > maxRunes {
		cut := findCut(runes, maxRunes)
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// findCut returns the rune offset at which to cut, never beyond maxRunes.
func findCut(runes []rune, maxRunes int) int {
	window := runes[:maxRunes+1]

	for _, end := range clauseEnds {
		for i := maxRunes - 1; i > 0; i-- {
			if window[i] == end && unicode.IsSpace(window[i+1]) {
				return i + 1
			}
		}
	}

	for i := maxRunes; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}

	return maxRunes
}

// Join reassembles translated chunks with single spaces.
func Join(parts []string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
