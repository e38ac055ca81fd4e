// Package segment splits masked text into translation-safe units.
//
// Splitting happens in two passes: newlines first (each newline becomes its
// own unit), then a left-to-right scan of every line that cuts at sentence
// punctuation. The delimiters themselves are kept as single-character units
// so the reassembler can put them back where they were. Concatenating every
// unit of a Segment always yields the input text byte-for-byte.
package segment

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/valpere/nepatran/internal"
	"github.com/valpere/nepatran/internal/placeholder"
)

// Kind classifies a unit of a Segment.
type Kind int

const (
	// Text is translatable content.
	Text Kind = iota
	// Delim is a single sentence-level punctuation character.
	Delim
	// Newline is a single "\n".
	Newline
	// Space is whitespace sitting between two non-text units.
	Space
	// Literal is a run of placeholder tokens. It is carried through
	// untranslated.
	Literal
)

func (k Kind) String() string {
	switch k {
	case Delim:
		return "delim"
	case Newline:
		return "newline"
	case Space:
		return "space"
	case Literal:
		return "literal"
	default:
		return "text"
	}
}

// Unit is one element of a Segment.
type Unit struct {
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
}

// Segment is the ordered unit sequence of one text.
type Segment []Unit

// String concatenates every unit back into the masked text.
func (s Segment) String() string {
	var b strings.Builder
	for _, u := range s {
		b.WriteString(u.Text)
	}
	return b.String()
}

// Texts returns the raw unit strings.
func (s Segment) Texts() []string {
	out := make([]string, len(s))
	for i, u := range s {
		out[i] = u.Text
	}
	return out
}

// CleanUnit is a trimmed translatable unit together with the position of the
// Segment unit it came from.
type CleanUnit struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// delimiters are the characters a Segment may keep as standalone units.
var delimiters = map[string]bool{
	"–":  true,
	".":  true,
	":":  true,
	"?":  true,
	"/":  true,
	"!":  true,
	"\n": true,
}

// IsDelimiter reports whether s is exactly one delimiter character
// (newline included).
func IsDelimiter(s string) bool {
	return delimiters[s]
}

const boldMarker = "**"

// SplitLines splits text on newlines, keeping every "\n" as its own element.
// Empty pieces are dropped.
func SplitLines(text string) []string {
	var out []string
	for {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			break
		}
		if idx > 0 {
			out = append(out, text[:idx])
		}
		out = append(out, "\n")
		text = text[idx+1:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// Split turns masked text into a Segment.
//
// A delimiter (! ? : / .) is a cut point unless it sits between two digits;
// a period is cut only when no letter touches it, which keeps "Dr. Smith" and
// "e.g. this" whole, and an en-dash is a cut point only when no digit touches it. Nothing is cut
// inside a **bold** span.
func Split(text string) (Segment, error) {
	if text == "" {
		return nil, nil
	}

	spans, err := boldSpans(text)
	if err != nil {
		return nil, err
	}

	var (
		seg   Segment
		start int
		prev  rune
	)
	flush := func(end int) {
		if end <= start {
			return
		}
		piece := text[start:end]
		kind := Text
		switch {
		case strings.TrimSpace(piece) == "":
			kind = Space
		case onlyPlaceholders(piece):
			kind = Literal
		}
		seg = append(seg, Unit{Text: piece, Kind: kind})
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			flush(i)
			seg = append(seg, Unit{Text: "\n", Kind: Newline})
			i += size
			start, prev = i, 0
			continue
		}

		var next rune
		if i+size < len(text) {
			next, _ = utf8.DecodeRuneInString(text[i+size:])
			if next == '\n' {
				next = 0
			}
		}

		if isCut(r, prev, next) && !spans.contains(i) {
			flush(i)
			seg = append(seg, Unit{Text: string(r), Kind: Delim})
			start = i + size
		}
		prev = r
		i += size
	}
	flush(len(text))

	return seg, nil
}

// Strip drops whitespace-only, delimiter and placeholder-only units and trims
// the rest.
func Strip(seg Segment) []CleanUnit {
	var out []CleanUnit
	for i, u := range seg {
		trimmed := strings.TrimSpace(u.Text)
		if trimmed == "" || IsDelimiter(u.Text) || u.Kind == Literal {
			continue
		}
		out = append(out, CleanUnit{Index: i, Text: trimmed})
	}
	return out
}

// Texts returns the text of every clean unit.
func Texts(units []CleanUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

func isCut(r, prev, next rune) bool {
	switch r {
	case '!', '?', ':', '/':
		return !(isDigit(prev) && isDigit(next))
	case '.':
		if isDigit(prev) && isDigit(next) {
			return false
		}
		return !isWordRune(prev) && !isWordRune(next)
	case '–':
		return !isDigit(prev) && !isDigit(next)
	}
	return false
}

func onlyPlaceholders(piece string) bool {
	for _, f := range strings.Fields(piece) {
		if !placeholder.IsToken(f) {
			return false
		}
	}
	return true
}

func isDigit(r rune) bool {
	return r != 0 && unicode.IsDigit(r)
}

func isWordRune(r rune) bool {
	return r != 0 && (unicode.IsLetter(r) || unicode.IsMark(r))
}

// span is a half-open byte range [open, close) covering a bold span,
// markers included.
type span struct{ open, close int }

type spanList []span

func (l spanList) contains(pos int) bool {
	for _, s := range l {
		if pos > s.open && pos < s.close {
			return true
		}
	}
	return false
}

// boldSpans pairs ** markers left to right. A trailing unpaired marker is
// treated as a literal, unless it opens the text, in which case the span
// would swallow everything and the text cannot be segmented.
func boldSpans(text string) (spanList, error) {
	var (
		spans spanList
		open  = -1
		pos   int
	)
	for {
		idx := strings.Index(text[pos:], boldMarker)
		if idx < 0 {
			break
		}
		at := pos + idx
		if open < 0 {
			open = at
		} else {
			spans = append(spans, span{open: open, close: at + len(boldMarker)})
			open = -1
		}
		pos = at + len(boldMarker)
	}

	if open >= 0 && strings.TrimSpace(text[:open]) == "" {
		return nil, fmt.Errorf("%w: unterminated bold span at offset %d", internal.ErrSegmentation, open)
	}
	return spans, nil
}
