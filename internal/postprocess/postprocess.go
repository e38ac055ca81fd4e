// Package postprocess strips the chatter a prompted language model wraps
// around a translation so that only the translated unit remains.
//
// It is applied to raw Ollama output before the unit is reassembled.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean runs every cleanup pass and returns the trimmed result:
//  1. reasoning blocks (<think>, <reasoning>, ...), closed or cut off
//  2. a leading "Here is the translation:" style preamble
//  3. trailing "Note:" lines
//  4. quotes wrapping the whole text
//  5. placeholder tokens the model upper-cased (U1 -> u1)
func Clean(text string) string {
	text = stripReasoning(text)
	text = stripPreamble(text)
	text = stripNotes(text)
	text = unquote(text)
	text = fixTokens(text)
	return strings.TrimSpace(text)
}

// RE2 has no backreferences, so every tag pair is spelled out.
var (
	reReasoning = regexp.MustCompile(
		`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
	)
	reOpenReasoning = regexp.MustCompile(`(?is)(?:<think>|<thinking>|<reasoning>|<reflection>).*$`)
)

func stripReasoning(text string) string {
	text = reReasoning.ReplaceAllString(text, "")
	text = reOpenReasoning.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// rePreamble matches an introduction ending in a colon. The language names
// cover both directions the pipeline calls the model for.
var rePreamble = regexp.MustCompile(
	`(?i)^(?:(?:sure|certainly|of course)[,.!]?\s+)?` +
		`(?:here(?:'s| is)\s+)?(?:the\s+)?` +
		`(?:(?:nepali|english)\s+)?(?:translation|translated text|अनुवाद)` +
		`(?:\s+(?:in|into|to)\s+(?:nepali|english))?\s*:`,
)

func stripPreamble(text string) string {
	loc := rePreamble.FindStringIndex(text)
	if loc == nil {
		return text
	}
	rest := strings.TrimSpace(text[loc[1]:])
	if rest == "" {
		return text
	}
	return rest
}

var reNote = regexp.MustCompile(`(?i)^\(?\s*(?:note|explanation|टिप्पणी)\s*:`)

// stripNotes drops the first line that opens an explanatory note, along with
// everything after it. A text that is nothing but a note is kept.
func stripNotes(text string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if reNote.MatchString(strings.TrimSpace(lines[i])) {
			return strings.TrimSpace(strings.Join(lines[:i], "\n"))
		}
	}
	return text
}

var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'«':      '»',
	'\u201C': '\u201D',
	'\u2018': '\u2019',
}

// unquote removes one pair of quotes wrapping the entire text.
func unquote(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	if closing, ok := quotePairs[runes[0]]; ok && runes[len(runes)-1] == closing {
		return strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}
	return text
}

var reUpperToken = regexp.MustCompile(`\bU(\d+)\b`)

func fixTokens(text string) string {
	return reUpperToken.ReplaceAllString(text, "u$1")
}
