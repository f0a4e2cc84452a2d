package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/transgate/internal/cache"
	"horse.fit/transgate/internal/gateway"
	"horse.fit/transgate/internal/history"
)

type stubProvider struct {
	name       string
	text       string
	lastTarget string
	calls      int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Translate(_ context.Context, req gateway.Request) (*gateway.Result, error) {
	p.calls++
	p.lastTarget = req.TargetLang
	return &gateway.Result{
		Success: true,
		Text:    p.text,
		Service: p.name,
	}, nil
}

type stubHistory struct {
	records []history.Record
}

func (h *stubHistory) Recent(_ context.Context, limit int) ([]history.Record, error) {
	if limit < len(h.records) {
		return h.records[:limit], nil
	}
	return h.records, nil
}

func newTestServer(t *testing.T, historyReader HistoryReader) (*Server, *stubProvider) {
	t.Helper()

	provider := &stubProvider{name: "Lingva", text: "hola"}
	chain := gateway.NewChain(gateway.NewRateLimiter(), zerolog.Nop(), provider)

	gw, err := gateway.New(gateway.Config{
		Cache:  cache.NewMemoryStore(cache.DefaultCapacity),
		Chain:  chain,
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("build gateway: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	gw.Start(ctx)

	server := NewServer(gw, historyReader, zerolog.Nop(), Options{
		DefaultTargetLang: "en",
	})
	return server, provider
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.buildEcho().ServeHTTP(rec, req)
	return rec
}

func decodeJSend(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
	return envelope
}

func TestHandleTranslateSuccess(t *testing.T) {
	server, provider := newTestServer(t, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/translate",
		`{"text":"hello","source_lang":"auto","target_lang":"es"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeJSend(t, rec)
	if envelope["status"] != "success" {
		t.Fatalf("expected jsend success, got %v", envelope["status"])
	}
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", envelope["data"])
	}
	if data["success"] != true {
		t.Errorf("expected success=true, got %v", data["success"])
	}
	if data["text"] != "hola" {
		t.Errorf("expected translated text hola, got %v", data["text"])
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}
}

func TestHandleTranslateDefaultsTargetLang(t *testing.T) {
	server, provider := newTestServer(t, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/translate", `{"text":"bonjour"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if provider.lastTarget != "en" {
		t.Errorf("expected default target en, got %q", provider.lastTarget)
	}
}

func TestHandleTranslateMissingText(t *testing.T) {
	server, provider := newTestServer(t, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/translate", `{"text":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	envelope := decodeJSend(t, rec)
	if envelope["status"] != "fail" {
		t.Errorf("expected jsend fail, got %v", envelope["status"])
	}
	if provider.calls != 0 {
		t.Errorf("expected no provider calls, got %d", provider.calls)
	}
}

func TestHandleTranslateInvalidTargetLang(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/translate",
		`{"text":"hello","target_lang":"!!"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleLanguages(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/languages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	envelope := decodeJSend(t, rec)
	data := envelope["data"].(map[string]any)
	items, ok := data["items"].([]any)
	if !ok || len(items) == 0 {
		t.Fatalf("expected non-empty language list, got %v", data["items"])
	}
	first := items[0].(map[string]any)
	if first["code"] != "auto" {
		t.Errorf("expected auto option first, got %v", first["code"])
	}
}

func TestHandleProviders(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/providers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	envelope := decodeJSend(t, rec)
	data := envelope["data"].(map[string]any)
	providers, ok := data["providers"].([]any)
	if !ok || len(providers) != 1 {
		t.Fatalf("expected 1 provider, got %v", data["providers"])
	}
	first := providers[0].(map[string]any)
	if first["name"] != "Lingva" || first["ready"] != true {
		t.Errorf("unexpected provider status: %v", first)
	}

	limiter := data["limiter"].(map[string]any)
	if limiter["cooldown_seconds"] != float64(0) {
		t.Errorf("expected zero cooldown, got %v", limiter["cooldown_seconds"])
	}
}

func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	envelope := decodeJSend(t, rec)
	data := envelope["data"].(map[string]any)
	if data["service"] != "transgate" {
		t.Errorf("unexpected service name: %v", data["service"])
	}
}

func TestHandleHistoryDisabled(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/history", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when history is disabled, got %d", rec.Code)
	}
}

func TestHandleHistoryEnabled(t *testing.T) {
	reader := &stubHistory{
		records: []history.Record{
			{
				ID:             1,
				SourceText:     "hello",
				TranslatedText: "hola",
				SourceLang:     "auto",
				TargetLang:     "es",
				Service:        "Lingva",
				CreatedAt:      time.Now().UTC(),
			},
		},
	}
	server, _ := newTestServer(t, reader)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/history?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeJSend(t, rec)
	data := envelope["data"].(map[string]any)
	items := data["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 history item, got %d", len(items))
	}
}

func TestClientRateLimitShedsBursts(t *testing.T) {
	server, _ := newTestServer(t, nil)
	e := server.buildEcho()

	limited := 0
	for i := 0; i < 40; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited == 0 {
		t.Fatal("expected a burst well past the per-client limit to be shed")
	}
}

func TestHandleHistoryInvalidLimit(t *testing.T) {
	server, _ := newTestServer(t, &stubHistory{})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/history?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
