package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultMyMemoryURL = "https://api.mymemory.translated.net"

// MyMemoryService uses the public MyMemory translation memory API. It needs
// no credentials; cfg.APIKey raises the daily quota when set.
type MyMemoryService struct {
	baseURL string
	client  *http.Client
}

func NewMyMemoryService(baseURL string) *MyMemoryService {
	if baseURL == "" {
		baseURL = defaultMyMemoryURL
	}
	return &MyMemoryService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

// isoCode reduces an NLLB-style tag to the two-letter code MyMemory expects.
func isoCode(tag string) (string, error) {
	t, err := googleTag(tag)
	if err != nil {
		return "", err
	}
	base, _ := t.Base()
	return base.String(), nil
}

func (s *MyMemoryService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	source, err := isoCode(req.SourceLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid source language: %v", err)
		return result, fmt.Errorf("invalid source language %q: %w", req.SourceLang, err)
	}
	target, err := isoCode(req.TargetLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid target language: %v", err)
		return result, fmt.Errorf("invalid target language %q: %w", req.TargetLang, err)
	}

	q := url.Values{}
	q.Set("q", req.Text)
	q.Set("langpair", source+"|"+target)
	if cfg.APIKey != "" {
		q.Set("key", cfg.APIKey)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}
	defer resp.Body.Close()

	var mymemResp struct {
		ResponseData struct {
			TranslatedText string  `json:"translatedText"`
			Match          float64 `json:"match"`
		} `json:"responseData"`
		ResponseStatus  int    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&mymemResp); err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result, err
	}

	if mymemResp.ResponseStatus != http.StatusOK {
		result.Error = fmt.Sprintf("API error: %s (%d)", mymemResp.ResponseDetails, mymemResp.ResponseStatus)
		return result, fmt.Errorf("API error: %s", mymemResp.ResponseDetails)
	}

	result.TranslatedText = mymemResp.ResponseData.TranslatedText
	result.Metadata = map[string]string{
		"langpair": source + "|" + target,
		"match":    strconv.FormatFloat(mymemResp.ResponseData.Match, 'f', 2, 64),
	}
	return result, nil
}

func (s *MyMemoryService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *MyMemoryService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"eng_Latn", "npi_Deva"}, nil
}
