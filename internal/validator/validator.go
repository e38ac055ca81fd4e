// Package validator checks that a translation came back in the requested
// language.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/nepatran/internal"
	"github.com/valpere/nepatran/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// ErrWrongLanguage is returned when the output is detected in another language.
var ErrWrongLanguage = errors.New("translation is in the wrong language")

// Validator checks translation output against the target tag.
// The underlying language detector is expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

func New() *Validator {
	return &Validator{det: detector.New()}
}

// Check returns ErrWrongLanguage when text is confidently detected as the
// other language of the eng_Latn/npi_Deva pair. Other targets, short texts
// and undetectable texts pass.
func (v *Validator) Check(text, targetLang string) error {
	if !internal.IsKnownLang(targetLang) {
		return nil
	}

	text = strings.TrimSpace(text)
	// Detector is unreliable for very short texts; skip validation.
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.Detect(text)
	if !ok {
		return nil
	}
	if detected != targetLang {
		return fmt.Errorf("%w: expected %s but detected %s", ErrWrongLanguage, targetLang, detected)
	}
	return nil
}
