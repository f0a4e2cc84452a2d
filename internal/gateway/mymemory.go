package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"horse.fit/transgate/internal/language"
)

// DefaultMyMemoryEndpoint is the public MyMemory API.
const DefaultMyMemoryEndpoint = "https://api.mymemory.translated.net/get"

// MyMemoryProvider is the secondary adapter. MyMemory rejects "auto" language
// pairs, so when the caller supplies "auto" or a source equal to the target,
// the adapter guesses the source with a crude script probe before building
// the langpair.
type MyMemoryProvider struct {
	endpoint string
	client   *http.Client
}

func NewMyMemoryProvider(endpoint string) *MyMemoryProvider {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultMyMemoryEndpoint
	}
	return &MyMemoryProvider{
		endpoint: trimmed,
		client:   newProviderHTTPClient(),
	}
}

func (p *MyMemoryProvider) Name() string {
	return "MyMemory"
}

type myMemoryResponse struct {
	ResponseStatus  int    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
	ResponseData    struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

func (p *MyMemoryProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	source := req.SourceLang
	guessed := false
	if source == "" || source == language.Auto || source == req.TargetLang {
		source = guessSourceLang(req.Text)
		guessed = true
	}

	// Same-language pair after guessing: nothing to translate.
	if source == req.TargetLang {
		return &Result{
			Success:      true,
			Text:         req.Text,
			Service:      p.Name(),
			DetectedLang: source,
			SameLanguage: true,
		}, nil
	}

	query := url.Values{}
	query.Set("q", req.Text)
	query.Set("langpair", source+"|"+req.TargetLang)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("returned status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	var parsed myMemoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: fmt.Sprintf("decode response: %v", err)}
	}
	if parsed.ResponseStatus != http.StatusOK {
		message := strings.TrimSpace(parsed.ResponseDetails)
		if message == "" {
			message = "unspecified error"
		}
		return nil, &ProviderError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("response status %d: %s", parsed.ResponseStatus, message),
		}
	}

	translated := strings.TrimSpace(parsed.ResponseData.TranslatedText)
	if translated == "" {
		return nil, &ProviderError{Provider: p.Name(), Message: "empty translation"}
	}

	result := &Result{
		Success: true,
		Text:    translated,
		Service: p.Name(),
	}
	if guessed {
		result.DetectedLang = source
	}
	return result, nil
}

// guessSourceLang is a deliberately crude script probe kept for compatibility
// with the original behavior: any Cyrillic rune means Russian, otherwise any
// Han rune means Chinese, otherwise English. It is not language detection and
// must not be strengthened; broader coverage changes which langpair MyMemory
// receives.
func guessSourceLang(text string) string {
	for _, r := range text {
		if r >= 0x0400 && r <= 0x04FF {
			return "ru"
		}
	}
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return "zh"
		}
	}
	return "en"
}
