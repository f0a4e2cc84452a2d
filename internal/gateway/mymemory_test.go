package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGuessSourceLang(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want string
	}{
		{"привет мир", "ru"},
		{"你好世界", "zh"},
		{"hello world", "en"},
		{"12345 !?", "en"},
		// Cyrillic wins when both scripts appear: the probe checks it first.
		{"你好 привет", "ru"},
	}
	for _, tc := range cases {
		if got := guessSourceLang(tc.text); got != tc.want {
			t.Fatalf("guessSourceLang(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestMyMemory_GuessesSourceForAuto(t *testing.T) {
	t.Parallel()

	var gotLangpair string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLangpair = r.URL.Query().Get("langpair")
		_, _ = w.Write([]byte(`{"responseStatus":200,"responseData":{"translatedText":"hello world"}}`))
	}))
	defer server.Close()

	provider := NewMyMemoryProvider(server.URL)
	result, err := provider.Translate(context.Background(), Request{Text: "привет мир", SourceLang: "auto", TargetLang: "en"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if gotLangpair != "ru|en" {
		t.Fatalf("unexpected langpair: %q", gotLangpair)
	}
	if result.Text != "hello world" || result.Service != "MyMemory" || result.DetectedLang != "ru" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestMyMemory_SameLanguageIsNoOp(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls++
	}))
	defer server.Close()

	provider := NewMyMemoryProvider(server.URL)
	result, err := provider.Translate(context.Background(), Request{Text: "hello world", SourceLang: "auto", TargetLang: "en"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !result.SameLanguage || result.Text != "hello world" {
		t.Fatalf("expected same-language no-op, got %+v", result)
	}
	if calls != 0 {
		t.Fatalf("no-op must not hit the network, got %d calls", calls)
	}
}

func TestMyMemory_NonSuccessResponseStatusIsFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"responseStatus":429,"responseDetails":"MYMEMORY WARNING: YOU USED ALL AVAILABLE FREE TRANSLATIONS FOR TODAY"}`))
	}))
	defer server.Close()

	provider := NewMyMemoryProvider(server.URL)
	_, err := provider.Translate(context.Background(), Request{Text: "bonjour", SourceLang: "fr", TargetLang: "en"})
	if err == nil {
		t.Fatal("expected failure for non-200 responseStatus")
	}
	if !strings.Contains(err.Error(), "MYMEMORY WARNING") {
		t.Fatalf("error should carry responseDetails: %v", err)
	}
	if !IsRateLimitSignal(err) {
		t.Fatalf("quota exhaustion must classify as rate limit: %v", err)
	}
}

func TestMyMemory_ExplicitSourcePassesThrough(t *testing.T) {
	t.Parallel()

	var gotLangpair string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLangpair = r.URL.Query().Get("langpair")
		_, _ = w.Write([]byte(`{"responseStatus":200,"responseData":{"translatedText":"hola"}}`))
	}))
	defer server.Close()

	provider := NewMyMemoryProvider(server.URL)
	result, err := provider.Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "es"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if gotLangpair != "en|es" {
		t.Fatalf("unexpected langpair: %q", gotLangpair)
	}
	// No guess happened, so no detected language is reported.
	if result.DetectedLang != "" {
		t.Fatalf("unexpected detected lang: %q", result.DetectedLang)
	}
}
