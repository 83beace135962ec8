package agent

import (
	"errors"
	"fmt"
	"testing"
)

func TestResolveAPIKeyPrecedence(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	key, err := ResolveAPIKey("openai", "flag-key", "config-key")
	if err != nil {
		t.Fatal(err)
	}
	if key != "flag-key" {
		t.Errorf("flag should win, got %q", key)
	}

	key, err = ResolveAPIKey("openai", "", "config-key")
	if err != nil {
		t.Fatal(err)
	}
	if key != "env-key" {
		t.Errorf("env should beat config, got %q", key)
	}

	t.Setenv("OPENAI_API_KEY", "")
	key, err = ResolveAPIKey("openai", "", "config-key")
	if err != nil {
		t.Fatal(err)
	}
	if key != "config-key" {
		t.Errorf("config should be the fallback, got %q", key)
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := ResolveAPIKey("anthropic", "", "")
	if err == nil {
		t.Fatal("expected error for missing credential")
	}
	if !IsKind(err, KindConfiguration) {
		t.Errorf("kind = %q, want %q", KindOf(err), KindConfiguration)
	}
}

func TestResolveAPIKeyUnknownProvider(t *testing.T) {
	_, err := ResolveAPIKey("cohere", "", "")
	if err == nil || !IsKind(err, KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("gemini", "", "some-key", Options{})
	if err == nil || !IsKind(err, KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestNewMissingKey(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic"} {
		_, err := New(provider, "", "", Options{})
		if err == nil || !IsKind(err, KindConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", provider, err)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("disk full")
	wrapped := WrapError(KindIO, "could not save artifact", base)

	if !IsKind(wrapped, KindIO) {
		t.Errorf("kind = %q", KindOf(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should unwrap to the base error")
	}

	// Kind survives another layer of wrapping
	outer := fmt.Errorf("run failed: %w", wrapped)
	if !IsKind(outer, KindIO) {
		t.Errorf("kind through fmt wrap = %q", KindOf(outer))
	}

	if KindOf(base) != "" {
		t.Errorf("plain error should have no kind, got %q", KindOf(base))
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(KindUpload, "msg", nil) != nil {
		t.Error("wrapping nil should return nil")
	}
}
