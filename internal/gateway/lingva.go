package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultLingvaEndpoints lists the public Lingva instances tried in rotation.
var DefaultLingvaEndpoints = []string{
	"https://lingva.ml",
	"https://lingva.lunar.icu",
	"https://translate.plausibility.cloud",
}

// LingvaProvider is the primary adapter. It fails over across multiple
// mirrored instances of the same service. The endpoint index is sticky: a
// successful instance becomes the starting point for the next request, so
// dead mirrors are not re-probed on every call. The index is mutated only
// from the queue's single drain goroutine.
type LingvaProvider struct {
	endpoints []string
	current   int
	client    *http.Client
}

// NewLingvaProvider builds the primary adapter. An empty endpoint list falls
// back to the built-in public instances.
func NewLingvaProvider(endpoints []string) *LingvaProvider {
	cleaned := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		trimmed := strings.TrimRight(strings.TrimSpace(endpoint), "/")
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultLingvaEndpoints...)
	}
	return &LingvaProvider{
		endpoints: cleaned,
		client:    newProviderHTTPClient(),
	}
}

func (p *LingvaProvider) Name() string {
	return "Lingva"
}

// CurrentEndpoint reports the instance the next request will try first.
func (p *LingvaProvider) CurrentEndpoint() string {
	return p.endpoints[p.current]
}

// Translate tries each instance starting from the sticky index. On the first
// success the index moves to that instance; if every instance fails, the last
// error propagates.
func (p *LingvaProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	var lastErr error
	for i := 0; i < len(p.endpoints); i++ {
		idx := (p.current + i) % len(p.endpoints)
		result, err := p.translateVia(ctx, p.endpoints[idx], req)
		if err != nil {
			lastErr = err
			continue
		}
		p.current = idx
		return result, nil
	}
	return nil, lastErr
}

type lingvaResponse struct {
	Translation string `json:"translation"`
	Info        struct {
		DetectedSource string `json:"detectedSource"`
	} `json:"info"`
}

func (p *LingvaProvider) translateVia(ctx context.Context, endpoint string, req Request) (*Result, error) {
	requestURL := fmt.Sprintf(
		"%s/api/v1/%s/%s/%s",
		endpoint,
		url.PathEscape(req.SourceLang),
		url.PathEscape(req.TargetLang),
		url.PathEscape(req.Text),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("%s: %v", endpoint, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("%s: read response: %v", endpoint, err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("%s returned status %d: %s", endpoint, resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	var parsed lingvaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("%s: decode response: %v", endpoint, err)}
	}
	if strings.TrimSpace(parsed.Translation) == "" {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("%s: empty translation", endpoint)}
	}

	return &Result{
		Success:      true,
		Text:         parsed.Translation,
		Service:      p.Name(),
		DetectedLang: parsed.Info.DetectedSource,
	}, nil
}
