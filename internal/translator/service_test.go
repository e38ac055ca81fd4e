package translator

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/valpere/nepatran/internal"
)

type fakeService struct {
	calls int
	err   error
}

func (f *fakeService) Name() string { return "fake" }

func (f *fakeService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	f.calls++
	if f.err != nil {
		return &ServiceResult{ServiceName: "fake", Error: f.err.Error()}, f.err
	}
	return &ServiceResult{ServiceName: "fake", TranslatedText: req.Text}, nil
}

func (f *fakeService) IsAvailable(ctx context.Context) error { return nil }

func (f *fakeService) SupportedLanguages(ctx context.Context) ([]string, error) { return nil, nil }

func TestNewService(t *testing.T) {
	for _, name := range []string{"", "nllb", "ollama", "google", "mymemory"} {
		svc, err := NewService(name, ServiceConfig{})
		if err != nil {
			t.Errorf("NewService(%q): unexpected error: %v", name, err)
			continue
		}
		want := name
		if want == "" {
			want = "nllb"
		}
		if svc.Name() != want {
			t.Errorf("NewService(%q).Name() = %q", name, svc.Name())
		}
	}

	if _, err := NewService("systran", ServiceConfig{}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestGoogleTag(t *testing.T) {
	tests := []struct {
		input string
		want  language.Tag
	}{
		{"npi_Deva", language.Nepali},
		{"eng_Latn", language.English},
		{"fr", language.French},
	}
	for _, tt := range tests {
		got, err := googleTag(tt.input)
		if err != nil {
			t.Errorf("googleTag(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("googleTag(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := googleTag("not a tag!"); err == nil {
		t.Error("expected error for malformed tag")
	}
}

func TestBreaker_PassesThrough(t *testing.T) {
	svc := &fakeService{}
	b := NewBreaker(svc, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute}, nil)

	result, err := b.Translate(context.Background(), ServiceConfig{}, TranslateRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "hi" {
		t.Errorf("unexpected translation %q", result.TranslatedText)
	}
	if b.Name() != "fake" {
		t.Errorf("unexpected name %q", b.Name())
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{err: boom}
	b := NewBreaker(svc, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		_, err := b.Translate(context.Background(), ServiceConfig{}, TranslateRequest{Text: "x"})
		if !errors.Is(err, boom) {
			t.Fatalf("call %d: expected underlying error, got %v", i, err)
		}
	}

	_, err := b.Translate(context.Background(), ServiceConfig{}, TranslateRequest{Text: "x"})
	if !errors.Is(err, internal.ErrTranslationUnavailable) {
		t.Fatalf("expected ErrTranslationUnavailable once open, got %v", err)
	}
	if svc.calls != 2 {
		t.Errorf("expected the open circuit to skip the model, got %d calls", svc.calls)
	}
	if b.State() != "open" {
		t.Errorf("expected open state, got %s", b.State())
	}
	if err := b.IsAvailable(context.Background()); err == nil {
		t.Error("expected open breaker to report unavailable")
	}
}

func TestBreaker_ZeroMaxFailuresNeverOpens(t *testing.T) {
	svc := &fakeService{err: errors.New("boom")}
	b := NewBreaker(svc, BreakerConfig{}, nil)

	for i := 0; i < 10; i++ {
		b.Translate(context.Background(), ServiceConfig{}, TranslateRequest{Text: "x"})
	}
	if svc.calls != 10 {
		t.Errorf("expected every call to reach the model, got %d", svc.calls)
	}
}
