package gateway

import (
	"context"
	"net/http"
	"time"
)

// Provider translates free-form text between languages. Implementations wrap
// one third-party backend and report failures as errors; the chain converts
// those into fallback decisions.
type Provider interface {
	Translate(ctx context.Context, req Request) (*Result, error)
	Name() string
}

// readinessProvider is implemented by adapters that become usable only after
// an asynchronous startup step. A not-ready adapter is skipped by the chain
// without counting as a failed attempt.
type readinessProvider interface {
	Ready() bool
}

// Request describes one translation request. SourceLang may be "auto",
// meaning the chain decides.
type Request struct {
	Text        string
	SourceLang  string // "auto" or ISO 639-1
	TargetLang  string
	SubmittedAt time.Time
}

// Result is the outcome of one translate operation. A Result with
// Success=false carries a human-readable Error; the gateway never propagates
// chain exhaustion as a fault past its boundary.
type Result struct {
	Success      bool   `json:"success"`
	Text         string `json:"text,omitempty"`
	Service      string `json:"service,omitempty"`
	DetectedLang string `json:"detected_lang,omitempty"`
	SameLanguage bool   `json:"same_language,omitempty"`
	Error        string `json:"error,omitempty"`
}

const (
	// requestTimeout bounds every outbound provider HTTP call.
	requestTimeout = 10 * time.Second

	// browserUserAgent is sent on all provider requests. The public
	// instances we call rate-limit unknown clients far more aggressively.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

func newProviderHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
