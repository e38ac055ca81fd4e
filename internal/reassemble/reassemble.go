// Package reassemble puts translated units back into the shape of the source
// segment and applies target-language punctuation rules.
package reassemble

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/valpere/nepatran/internal"
	"github.com/valpere/nepatran/internal/segment"
)

// Item is one element of a reassembled sentence. Word items are translated
// text and are separated from what precedes them by a space; everything else,
// placeholder runs included, is emitted verbatim.
type Item struct {
	Text string `json:"text"`
	Word bool   `json:"word"`
}

// Reinsert interleaves translations with the delimiters of seg. A delimiter
// or newline is glued to the preceding word item, or becomes an item of its
// own when there is none. It fails when the number of translations does not
// match the translatable units of seg.
func Reinsert(seg segment.Segment, translations []string) ([]Item, error) {
	items := make([]Item, 0, len(seg))
	next := 0

	for _, u := range seg {
		switch u.Kind {
		case segment.Delim, segment.Newline:
			if n := len(items); n > 0 && items[n-1].Word {
				items[n-1].Text += u.Text
				continue
			}
			items = append(items, Item{Text: u.Text})
		case segment.Space, segment.Literal:
			items = append(items, Item{Text: u.Text})
		default:
			if next >= len(translations) {
				return nil, fmt.Errorf("%w: %d translations for more text units", internal.ErrSegmentation, len(translations))
			}
			items = append(items, Item{Text: translations[next], Word: true})
			next++
		}
	}

	if next != len(translations) {
		return nil, fmt.Errorf("%w: %d translations for %d text units", internal.ErrSegmentation, len(translations), next)
	}
	return items, nil
}

// Assemble joins items into the final string. A word item is preceded by a
// single space unless it starts the text or follows whitespace.
func Assemble(items []Item) string {
	var b strings.Builder
	for _, it := range items {
		if it.Word && b.Len() > 0 && !endsWithSpace(b.String()) {
			b.WriteByte(' ')
		}
		b.WriteString(it.Text)
	}
	return strings.TrimSpace(b.String())
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

var reBold = regexp.MustCompile(`\*\*\s*(.*?)\s*\*\*`)

// Postprocess tightens **bold** markers around their content and localizes
// punctuation for a Nepali target.
func Postprocess(text, targetLang string) string {
	text = reBold.ReplaceAllString(text, "**${1}**")
	if targetLang == internal.LangNepali {
		text = Localize(text)
	}
	return text
}

var (
	// honorifics keep no trailing dot in Nepali.
	reHonorific = regexp.MustCompile(`(श्री|श्रीमती|प्रा|डा|ई)\.`)
	reDandaRun  = regexp.MustCompile(`।।+`)
	reQuestions = regexp.MustCompile(`\?{2,}`)
)

const danda = '।'

// Localize converts Latin sentence punctuation to Nepali conventions: the dot
// after an honorific abbreviation is dropped, any other dot not preceded by a
// digit becomes a danda, and repeated dandas or question marks collapse.
func Localize(text string) string {
	text = reHonorific.ReplaceAllString(text, "$1")

	var b strings.Builder
	b.Grow(len(text))
	var prev rune
	for _, r := range text {
		if r == '.' && !unicode.IsDigit(prev) {
			b.WriteRune(danda)
		} else {
			b.WriteRune(r)
		}
		prev = r
	}
	text = b.String()

	text = reDandaRun.ReplaceAllString(text, string(danda))
	return reQuestions.ReplaceAllString(text, "?")
}
