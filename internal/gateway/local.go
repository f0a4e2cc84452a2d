package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultLocalEngineEndpoint points at a local OpenAI-compatible
	// translation engine.
	DefaultLocalEngineEndpoint = "http://127.0.0.1:8845/v1"
	// DefaultLocalEngineModel is the model requested from the engine.
	DefaultLocalEngineModel = "tencent/HY-MT1.5-7B"

	warmupProbeInterval = 5 * time.Second
	warmupProbeTimeout  = 10 * time.Minute
)

// LocalProvider is the tertiary adapter: an in-process fallback backed by a
// locally hosted translation engine. The engine loads its model
// asynchronously at startup, so the adapter stays not-ready until a warmup
// probe succeeds; the chain skips it meanwhile without recording a failure.
type LocalProvider struct {
	chatURL   string
	modelsURL string
	model     string
	client    *http.Client
	ready     atomic.Bool
}

// NewLocalProvider builds the local adapter for the given engine endpoint and
// model. The adapter starts not-ready; call StartWarmup to begin probing.
func NewLocalProvider(endpoint, model string) *LocalProvider {
	normalized := normalizeEngineEndpoint(endpoint)
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = DefaultLocalEngineModel
	}
	return &LocalProvider{
		chatURL:   normalized + "/chat/completions",
		modelsURL: normalized + "/models",
		model:     trimmedModel,
		client:    newProviderHTTPClient(),
	}
}

func (p *LocalProvider) Name() string {
	return "Local"
}

// ModelName returns the configured model identifier.
func (p *LocalProvider) ModelName() string {
	return p.model
}

// Ready reports whether the engine has finished loading.
func (p *LocalProvider) Ready() bool {
	return p.ready.Load()
}

// StartWarmup probes the engine's model list in the background until it
// answers, then marks the adapter ready. Probing stops when ctx is done or
// after the probe timeout.
func (p *LocalProvider) StartWarmup(ctx context.Context, logger zerolog.Logger) {
	go func() {
		deadline := time.Now().Add(warmupProbeTimeout)
		ticker := time.NewTicker(warmupProbeInterval)
		defer ticker.Stop()

		for {
			if p.probe(ctx) {
				p.ready.Store(true)
				logger.Info().Str("provider", p.Name()).Str("model", p.model).Msg("local translation engine ready")
				return
			}
			if time.Now().After(deadline) {
				logger.Warn().Str("provider", p.Name()).Msg("local translation engine never became ready")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (p *LocalProvider) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.modelsURL, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

type engineChatRequest struct {
	Model       string              `json:"model"`
	Messages    []engineChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
}

type engineChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type engineChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *LocalProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	if !p.Ready() {
		return nil, &ProviderError{Provider: p.Name(), Message: "translation engine is still loading"}
	}

	target := languageLabel(req.TargetLang)
	prompt := fmt.Sprintf("Translate the following segment into %s, without additional explanation.\n\n%s", target, req.Text)

	body, err := json.Marshal(engineChatRequest{
		Model:       p.model,
		Messages:    []engineChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatURL, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("engine status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	var parsed engineChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Message: "response missing choices"}
	}

	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translated == "" {
		return nil, &ProviderError{Provider: p.Name(), Message: "empty translation"}
	}

	return &Result{
		Success: true,
		Text:    translated,
		Service: p.Name(),
	}, nil
}

func normalizeEngineEndpoint(raw string) string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return DefaultLocalEngineEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultLocalEngineEndpoint
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	if parsed.Path == "" {
		parsed.Path = "/v1"
	}
	return parsed.String()
}
