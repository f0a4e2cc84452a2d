package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLocal_NotReadyUntilWarmupSucceeds(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			_, _ = w.Write([]byte(`{"data":[{"id":"test-model"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	provider := NewLocalProvider(server.URL, "test-model")
	if provider.Ready() {
		t.Fatal("provider must start not-ready")
	}

	if _, err := provider.Translate(context.Background(), Request{Text: "hi", SourceLang: "en", TargetLang: "ru"}); err == nil {
		t.Fatal("translate before readiness must fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	provider.StartWarmup(ctx, zerolog.Nop())

	deadline := time.Now().Add(5 * time.Second)
	for !provider.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("provider never became ready")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLocal_TranslatesViaChatCompletions(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("unexpected content type: %q", ct)
			}
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"привет"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	provider := NewLocalProvider(server.URL, "test-model")
	provider.ready.Store(true)

	result, err := provider.Translate(context.Background(), Request{Text: "hello", SourceLang: "en", TargetLang: "ru"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if result.Text != "привет" || result.Service != "Local" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestNormalizeEngineEndpoint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{"", DefaultLocalEngineEndpoint},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/v1"},
		{"http://localhost:8845/v1/", "http://localhost:8845/v1"},
		{"https://engine.internal/api", "https://engine.internal/api"},
	}
	for _, tc := range cases {
		if got := normalizeEngineEndpoint(tc.raw); got != tc.want {
			t.Fatalf("normalizeEngineEndpoint(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
