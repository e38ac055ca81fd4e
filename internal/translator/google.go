package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// googleTags covers tags whose ISO 639-3 code Cloud Translation does not
// accept.
var googleTags = map[string]language.Tag{
	"npi_Deva": language.Nepali,
	"eng_Latn": language.English,
}

// GoogleService calls Cloud Translation v2.
type GoogleService struct{}

func NewGoogleService() *GoogleService {
	return &GoogleService{}
}

func (s *GoogleService) Name() string {
	return "google"
}

// googleTag maps an NLLB-style tag (lang_Script) to a BCP 47 tag.
func googleTag(tag string) (language.Tag, error) {
	if t, ok := googleTags[tag]; ok {
		return t, nil
	}
	base, script, _ := strings.Cut(tag, "_")
	if script != "" {
		if t, err := language.Parse(base + "-" + script); err == nil {
			return t, nil
		}
	}
	return language.Parse(base)
}

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	target, err := googleTag(req.TargetLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid target language: %v", err)
		return result, fmt.Errorf("invalid target language %q: %w", req.TargetLang, err)
	}

	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create client: %v", err)
		return result, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	var topts *translate.Options
	if source, err := googleTag(req.SourceLang); err == nil {
		topts = &translate.Options{Source: source, Format: translate.Text}
	}

	translations, err := client.Translate(ctx, []string{req.Text}, target, topts)
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		return result, fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		result.Error = "no translation returned"
		return result, fmt.Errorf("no translation returned")
	}

	result.TranslatedText = translations[0].Text
	result.Metadata = map[string]string{"target": target.String()}
	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *GoogleService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"eng_Latn", "npi_Deva"}, nil
}
