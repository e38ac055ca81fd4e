package placeholder_test

import (
	"strings"
	"testing"

	"github.com/valpere/nepatran/internal/placeholder"
)

func TestMask_NoLinks(t *testing.T) {
	text := "Hello, world!"
	got, m := placeholder.Mask(text)
	if got != text {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if len(m) != 0 {
		t.Errorf("expected 0 placeholders, got %d", len(m))
	}
}

func TestMask_TwoDistinctURLs(t *testing.T) {
	text := "See https://example.com/a and www.law.gov.np for details."
	got, m := placeholder.Mask(text)

	if len(m) != 2 {
		t.Fatalf("expected 2 placeholders, got %d: %v", len(m), m)
	}
	if m[0].Token != "u1" || m[0].Original != "https://example.com/a" {
		t.Errorf("unexpected first placeholder: %+v", m[0])
	}
	if m[1].Token != "u2" || m[1].Original != "www.law.gov.np" {
		t.Errorf("unexpected second placeholder: %+v", m[1])
	}
	if got != "See u1 and u2 for details." {
		t.Errorf("unexpected masked text %q", got)
	}
}

func TestMask_Email(t *testing.T) {
	got, m := placeholder.Mask("Write to info@court.gov.np today")
	if len(m) != 1 {
		t.Fatalf("expected 1 placeholder, got %d", len(m))
	}
	if got != "Write to u1 today" {
		t.Errorf("unexpected masked text %q", got)
	}
}

func TestMask_RepeatedLiteral(t *testing.T) {
	// Each match replaces only the first remaining occurrence.
	got, m := placeholder.Mask("https://a.np then https://a.np")
	if len(m) != 2 {
		t.Fatalf("expected 2 placeholders, got %d", len(m))
	}
	if got != "u1 then u2" {
		t.Errorf("unexpected masked text %q", got)
	}
}

func TestUnmask_RoundTrip(t *testing.T) {
	original := "visit https://Example.com/Path or mail a@b.np"
	masked, m := placeholder.Mask(original)
	restored := placeholder.Unmask(masked, m)
	if restored != original {
		t.Errorf("round-trip failed:\n  original: %q\n  restored: %q", original, restored)
	}
}

func TestUnmask_LowercasesSurroundingText(t *testing.T) {
	masked, m := placeholder.Mask("Visit https://Example.com NOW")
	got := placeholder.Unmask(strings.ToUpper(masked), m)
	if got != "visit https://Example.com now" {
		t.Errorf("unexpected unmasked text %q", got)
	}
}

func TestUnmask_NoPlaceholdersKeepsCase(t *testing.T) {
	if got := placeholder.Unmask("Keep Case", nil); got != "Keep Case" {
		t.Errorf("expected text untouched, got %q", got)
	}
}

func TestUnmask_DoesNotRewriteLongerTokens(t *testing.T) {
	m := placeholder.Map{{Token: "u1", Original: "https://one.np"}}
	got := placeholder.Unmask("u1 u12 menu1", m)
	if got != "https://one.np u12 menu1" {
		t.Errorf("unexpected unmasked text %q", got)
	}
}

func TestUnmask_RestoredLiteralNotRescanned(t *testing.T) {
	m := placeholder.Map{
		{Token: "u1", Original: "https://x.np/u2"},
		{Token: "u2", Original: "https://y.np"},
	}
	got := placeholder.Unmask("u1 u2", m)
	if got != "https://x.np/u2 https://y.np" {
		t.Errorf("unexpected unmasked text %q", got)
	}
}

func TestUnmask_PunctuationAttached(t *testing.T) {
	m := placeholder.Map{{Token: "u1", Original: "https://one.np"}}
	if got := placeholder.Unmask("see u1.", m); got != "see https://one.np." {
		t.Errorf("unexpected unmasked text %q", got)
	}
}

func TestMissing(t *testing.T) {
	m := placeholder.Map{{Token: "u1", Original: "a"}, {Token: "u2", Original: "b"}}
	missing := placeholder.Missing("only U1 here", m)
	if len(missing) != 1 || missing[0] != "u2" {
		t.Errorf("expected [u2], got %v", missing)
	}
}

func TestMap_AsStrings(t *testing.T) {
	_, m := placeholder.Mask("a https://x.np b")
	got := m.AsStrings()
	if got["u1"] != "https://x.np" {
		t.Errorf("unexpected map %v", got)
	}
}
