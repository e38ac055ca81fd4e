package validator

import (
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		text    string
		target  string
		wantErr bool
	}{
		{"empty", "", "npi_Deva", false},
		{"whitespace only", "   ", "eng_Latn", false},
		{"short text", "Hi", "npi_Deva", false},
		{"unknown target", "This is a longer piece of English text.", "fra_Latn", false},
		{"english to english", "This is a longer piece of text that should be detected as English.", "eng_Latn", false},
		{"nepali to nepali", "नेपालको संविधान अनुसार नागरिकता प्राप्त गर्ने प्रक्रिया", "npi_Deva", false},
		{"english for nepali target", "The court dismissed the appeal after a long hearing.", "npi_Deva", true},
		{"nepali for english target", "सर्वोच्च अदालतले लामो सुनुवाइपछि पुनरावेदन खारेज गर्यो", "eng_Latn", true},
		{"placeholders do not tip nepali", "विस्तृत जानकारीका लागि u1 मा हेर्नुहोस् र u2 मा इमेल गर्नुहोस्", "npi_Deva", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(tt.text, tt.target)
			if tt.wantErr {
				if !errors.Is(err, ErrWrongLanguage) {
					t.Errorf("Check(%q, %s) = %v, want ErrWrongLanguage", tt.text, tt.target, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Check(%q, %s): unexpected error: %v", tt.text, tt.target, err)
			}
		})
	}
}
