package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const defaultNLLBURL = "http://localhost:8000"

// NLLBService talks to a CTranslate2/NLLB model server over HTTP:
//
//	POST {base}/translate {"text", "src_lang", "tgt_lang", "beam_size"} -> {"translation"}
//	GET  {base}/health
type NLLBService struct {
	baseURL string
	client  *http.Client
}

func NewNLLBService(baseURL string) *NLLBService {
	if baseURL == "" {
		baseURL = defaultNLLBURL
	}
	return &NLLBService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *NLLBService) Name() string {
	return "nllb"
}

type nllbRequest struct {
	Text     string `json:"text"`
	SrcLang  string `json:"src_lang"`
	TgtLang  string `json:"tgt_lang"`
	BeamSize int    `json:"beam_size"`
}

type nllbResponse struct {
	Translation string `json:"translation"`
	Error       string `json:"error,omitempty"`
}

// Translate sends the lower-cased unit to the model server.
func (s *NLLBService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	beam := cfg.BeamSize
	if beam <= 0 {
		beam = DefaultBeamSize
	}

	body, err := json.Marshal(nllbRequest{
		Text:     cases.Lower(language.Und).String(req.Text),
		SrcLang:  req.SourceLang,
		TgtLang:  req.TargetLang,
		BeamSize: beam,
	})
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal request: %v", err)
		return result, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, fmt.Errorf("nllb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		result.Error = fmt.Sprintf("API returned status %d", resp.StatusCode)
		return result, fmt.Errorf("nllb returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out nllbResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result, fmt.Errorf("failed to decode nllb response: %w", err)
	}
	if out.Error != "" {
		result.Error = out.Error
		return result, fmt.Errorf("nllb error: %s", out.Error)
	}

	result.TranslatedText = out.Translation
	result.Metadata = map[string]string{"beam_size": fmt.Sprint(beam)}
	return result, nil
}

func (s *NLLBService) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("nllb server not available: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nllb server returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *NLLBService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"eng_Latn", "npi_Deva"}, nil
}
