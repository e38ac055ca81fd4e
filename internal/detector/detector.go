// Package detector guesses the source language tag for --source auto.
package detector

import (
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/nepatran/internal"
)

// Detector maps free text to one of the pipeline's language tags.
//
// lingua has no Nepali model, so Devanagari text is classified by script
// first and only Latin text goes to the statistical detector. Romanized
// Nepali usually comes back as something other than English and is then
// reported as Nepali as well.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.Hindi, lingua.Marathi, lingua.Indonesian, lingua.Tagalog).
		WithPreloadedLanguageModels().
		Build()

	return &Detector{detector: detector}
}

// Detect returns eng_Latn or npi_Deva. ok is false for text without letters.
func (d *Detector) Detect(text string) (string, bool) {
	deva, latin := scriptCounts(text)
	switch {
	case deva == 0 && latin == 0:
		return "", false
	case deva >= latin:
		return internal.LangNepali, true
	}

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok || lang == lingua.English {
		return internal.LangEnglish, true
	}
	return internal.LangNepali, true
}

// Language exposes the raw lingua verdict for logging.
func (d *Detector) Language(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func scriptCounts(text string) (deva, latin int) {
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Devanagari, r) && unicode.IsLetter(r):
			deva++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	return deva, latin
}
