package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/nepatran/internal"
)

func defaultNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	table, err := Default()
	require.NoError(t, err)
	return NewNormalizer(table)
}

func TestDefault_Loads(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, table.NepaliToEnglish)
	assert.NotEmpty(t, table.EnglishToNepali)
	assert.NotEmpty(t, table.Romanized)
	assert.Equal(t, "international trade agreement", table.EnglishToNepali[0].From)
}

func TestLoad_FoldsKeysAndKeepsOrder(t *testing.T) {
	table, err := Load([]byte(`
english_to_nepali:
  Zeta: ज
  alpha: अ
  ZETA: जेटा
romanized:
  के: [KE, " ke "]
`))
	require.NoError(t, err)

	assert.Equal(t, []Pair{{From: "zeta", To: "जेटा"}, {From: "alpha", To: "अ"}}, table.EnglishToNepali)
	assert.Equal(t, []Variants{{Nepali: "के", Spellings: []string{"ke", "ke"}}}, table.Romanized)
}

func TestLoad_RejectsNonMapping(t *testing.T) {
	_, err := Load([]byte("nepali_to_english: [a, b]"))
	assert.Error(t, err)
}

func TestNormalize_LongestPhraseWins(t *testing.T) {
	n := defaultNormalizer(t)

	got := n.Normalize("The International Trade Agreement replaced the trade agreement", internal.LangEnglish, internal.LangNepali, internal.ContextAnswer)

	assert.Equal(t, "the अन्तर्राष्ट्रिय व्यापार सम्झौता replaced the व्यापार सम्झौता", got.Text)
	assert.Equal(t, internal.LangEnglish, got.SourceLang)
	assert.Equal(t, internal.LangNepali, got.TargetLang)
}

func TestNormalize_NepaliAnswer(t *testing.T) {
	n := defaultNormalizer(t)

	got := n.Normalize("संविधानमा मौलिक हक छ", internal.LangNepali, internal.LangEnglish, internal.ContextAnswer)

	assert.Equal(t, "constitution मा fundamental right छ", got.Text)
	assert.Equal(t, internal.LangNepali, got.SourceLang)
	assert.Equal(t, internal.LangEnglish, got.TargetLang)
}

func TestNormalize_DevanagariWordBoundary(t *testing.T) {
	n := defaultNormalizer(t)

	got := n.Normalize("नागरिकताहरू", internal.LangNepali, internal.LangEnglish, internal.ContextAnswer)
	assert.Equal(t, "नागरिकताहरू", got.Text)
}

func TestNormalize_UnknownTagPassesThrough(t *testing.T) {
	n := defaultNormalizer(t)

	got := n.Normalize("Bonjour Constitution", "fra_Latn", "deu_Latn", internal.ContextAnswer)
	assert.Equal(t, Result{Text: "bonjour constitution", SourceLang: "fra_Latn", TargetLang: "deu_Latn"}, got)
}

func TestNormalize_QuestionWithoutRomanizedFallsBack(t *testing.T) {
	n := defaultNormalizer(t)

	got := n.Normalize("What is a writ petition", internal.LangEnglish, internal.LangNepali, internal.ContextQuestion)
	assert.Equal(t, "what is a रिट निवेदन", got.Text)
	assert.Equal(t, internal.LangEnglish, got.SourceLang)
}

func TestNormalize_RomanizedQuestion(t *testing.T) {
	n := defaultNormalizer(t)

	got := n.Normalize("Kasary nagarikta paincha?", internal.LangEnglish, internal.LangNepali, internal.ContextQuestion)

	assert.Equal(t, "कसरी नागरिकता पाइन्छ?", got.Text)
	assert.Equal(t, internal.LangNepali, got.SourceLang)
	assert.Equal(t, internal.LangEnglish, got.TargetLang)
}

func TestNormalize_FuzzyBound(t *testing.T) {
	n := defaultNormalizer(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"distance one is recovered", "kasary nagarikta", "कसरी नागरिकता"},
		{"distance three is kept", "kasxyz nagarikta", "kasxyz नागरिकता"},
		{"tie goes to first variant", "kata nagarikta", "कहाँ नागरिकता"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input, internal.LangEnglish, internal.LangNepali, internal.ContextQuestion)
			assert.Equal(t, tt.want, got.Text)
		})
	}
}

func TestSpaceParticles(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"घरमा बस", "घर मा बस"},
		{"रामको, घर", "राम को, घर"},
		{"घरमा", "घरमा"},
		{"मा बस", "मा बस"},
		{"घर मा बस", "घर मा बस"},
		{"मामा घर", "मा मा घर"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, spaceParticles(tt.input), tt.input)
	}
}

func TestReplaceWhole(t *testing.T) {
	tests := []struct {
		text, phrase, repl, want string
	}{
		{"act and react", "act", "X", "X and react"},
		{"act, act.", "act", "X", "X, X."},
		{"factual", "act", "X", "factual"},
		{"no match", "", "X", "no match"},
		{"u.s. law", "u.s.", "US", "US law"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, replaceWhole(tt.text, tt.phrase, tt.repl), tt.text)
	}
}

func TestWithOverrides(t *testing.T) {
	base, err := Default()
	require.NoError(t, err)

	merged := base.WithOverrides([]Override{
		{SourceLang: internal.LangEnglish, TargetLang: internal.LangNepali, SourceTerm: "Court Fee", TargetTerm: "अदालती दस्तुर"},
		{SourceLang: internal.LangEnglish, TargetLang: internal.LangNepali, SourceTerm: "advocate", TargetTerm: "कानुन व्यवसायी"},
		{SourceLang: "fra_Latn", TargetLang: internal.LangNepali, SourceTerm: "loi", TargetTerm: "कानुन"},
	})

	n := NewNormalizer(merged)
	got := n.Normalize("the advocate paid the court fee", internal.LangEnglish, internal.LangNepali, internal.ContextAnswer)
	assert.Equal(t, "the कानुन व्यवसायी paid the अदालती दस्तुर", got.Text)

	assert.Len(t, merged.EnglishToNepali, len(base.EnglishToNepali)+1)
	for _, p := range base.EnglishToNepali {
		if p.From == "advocate" {
			assert.Equal(t, "अधिवक्ता", p.To, "base table must not change")
		}
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("kasari", "kasari"))
	assert.Equal(t, 1, levenshtein("kasari", "kasary"))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 1, levenshtein("छ", "छा"))
}
