package internal

import "time"

// Language tags understood by the dictionary routing. Anything else is
// passed through the pipeline untouched.
const (
	LangEnglish = "eng_Latn"
	LangNepali  = "npi_Deva"
)

// Context labels select the lexical normalization strategy.
const (
	ContextAnswer   = "answer"
	ContextQuestion = "question"
)

// TranslationRequest is the semantic key of a translation: two requests with
// the same target tag, text and context are expected to produce the same output.
type TranslationRequest struct {
	TargetLang string `json:"target_lang"`
	Text       string `json:"text"`
	Context    string `json:"context"`
}

// CacheRecord is one persisted row of the translation cache.
type CacheRecord struct {
	TargetLang     string    `json:"target_language_tag"`
	OriginalText   string    `json:"original_sentence"`
	TranslatedText string    `json:"translated_sentence"`
	Context        string    `json:"context"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// Key returns the lookup key of the record.
func (r CacheRecord) Key() TranslationRequest {
	return TranslationRequest{TargetLang: r.TargetLang, Text: r.OriginalText, Context: r.Context}
}

// IsKnownLang reports whether tag takes part in dictionary routing.
func IsKnownLang(tag string) bool {
	return tag == LangEnglish || tag == LangNepali
}

// DebugTrace captures every intermediate stage of one pipeline run.
type DebugTrace struct {
	RequestID                string            `json:"request_id"`
	SourceLang               string            `json:"source_lang"`
	TargetLang               string            `json:"target_lang"`
	Context                  string            `json:"context"`
	OriginalSentence         string            `json:"original_sentence"`
	SentenceWithPlaceholders string            `json:"sentence_with_placeholders"`
	PlaceholderMap           map[string]string `json:"placeholder_map"`
	SplitNewlines            []string          `json:"split_newlines"`
	SplitWithSymbols         []string          `json:"split_with_symbols"`
	TextOnly                 []string          `json:"text_only"`
	TranslatedSentence       []string          `json:"translated_sentence"`
	FinalResponse            string            `json:"final_response_including_url"`
	CreatedAt                time.Time         `json:"created_at"`
}
