package lexicon

import (
	"strings"

	"github.com/valpere/nepatran/internal"
)

// Result is a normalized unit together with the language pair the model
// must be called with.
type Result struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// Normalizer rewrites units with the dictionary before translation. It is
// read-only after construction and safe for concurrent use.
type Normalizer struct {
	nepToEng  *substituter
	engToNep  *substituter
	romanized *substituter
	variants  map[string]string
	fuzzy     *fuzzyIndex
}

// NewNormalizer compiles t.
func NewNormalizer(t *Table) *Normalizer {
	var (
		flat    []Pair
		entries []variantEntry
	)
	for _, v := range t.Romanized {
		for _, s := range v.Spellings {
			flat = upsert(flat, Pair{From: s, To: v.Nepali})
			entries = append(entries, variantEntry{spelling: s, nepali: v.Nepali})
		}
	}

	variants := make(map[string]string, len(flat))
	for _, p := range flat {
		variants[p.From] = p.To
	}

	return &Normalizer{
		nepToEng:  newSubstituter(t.NepaliToEnglish),
		engToNep:  newSubstituter(t.EnglishToNepali),
		romanized: newSubstituter(flat),
		variants:  variants,
		fuzzy:     &fuzzyIndex{entries: entries},
	}
}

// Normalize folds the unit to NFC lower case and applies the strategy
// selected by context. Questions that contain a known romanized spelling are
// treated as romanized Nepali whatever src says; everything else follows src.
// Tags other than eng_Latn and npi_Deva come back unchanged.
func (n *Normalizer) Normalize(text, src, tgt, context string) Result {
	text = fold(text)
	if context == internal.ContextQuestion && n.hasRomanized(text) {
		return n.romanizedQuestion(text)
	}
	return n.answer(text, src, tgt)
}

func (n *Normalizer) answer(text, src, tgt string) Result {
	switch src {
	case internal.LangNepali:
		text = n.nepToEng.apply(spaceParticles(text))
		return Result{Text: text, SourceLang: internal.LangNepali, TargetLang: internal.LangEnglish}
	case internal.LangEnglish:
		text = n.engToNep.apply(text)
		return Result{Text: text, SourceLang: internal.LangEnglish, TargetLang: internal.LangNepali}
	}
	return Result{Text: text, SourceLang: src, TargetLang: tgt}
}

func (n *Normalizer) romanizedQuestion(text string) Result {
	text = n.romanized.apply(text)
	text = n.fuzzy.replace(text)
	text = n.engToNep.apply(text)
	return Result{Text: text, SourceLang: internal.LangNepali, TargetLang: internal.LangEnglish}
}

func (n *Normalizer) hasRomanized(text string) bool {
	for _, w := range strings.Fields(text) {
		if _, ok := n.variants[w]; ok {
			return true
		}
	}
	return false
}
