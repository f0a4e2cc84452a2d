package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/transgate/internal/gateway"
)

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type providerStatus struct {
	Name     string `json:"name"`
	Ready    bool   `json:"ready"`
	Endpoint string `json:"endpoint,omitempty"`
	Model    string `json:"model,omitempty"`
}

type limiterStatus struct {
	ConsecutiveErrors int `json:"consecutive_errors"`
	CooldownSeconds   int `json:"cooldown_seconds"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service":     "transgate",
		"time":        time.Now().UTC(),
		"queue_depth": s.gw.QueueDepth(),
	})
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}

	if strings.TrimSpace(req.Text) == "" {
		return failValidation(c, map[string]string{"text": "is required"})
	}
	target := strings.TrimSpace(req.TargetLang)
	if target == "" {
		target = s.opts.DefaultTargetLang
	}

	result, err := s.gw.Translate(c.Request().Context(), req.Text, req.SourceLang, target)
	if err != nil {
		if errors.Is(err, gateway.ErrEmptyInput) {
			return failValidation(c, map[string]string{"text": "is required"})
		}
		if c.Request().Context().Err() != nil {
			// Client went away while the request was queued.
			return err
		}
		return failValidation(c, map[string]string{"target_lang": err.Error()})
	}

	// A failed translation is still a completed operation; the failure is
	// carried inside the result, not as an HTTP error.
	return success(c, result)
}

func (s *Server) handleLanguages(c echo.Context) error {
	return success(c, map[string]any{
		"items": gateway.LanguageOptions(),
	})
}

func (s *Server) handleProviders(c echo.Context) error {
	chain := s.gw.Chain()

	providers := make([]providerStatus, 0, len(chain.Providers()))
	for _, provider := range chain.Providers() {
		status := providerStatus{
			Name:  provider.Name(),
			Ready: true,
		}
		if r, ok := provider.(interface{ Ready() bool }); ok {
			status.Ready = r.Ready()
		}
		if ep, ok := provider.(interface{ CurrentEndpoint() string }); ok {
			status.Endpoint = ep.CurrentEndpoint()
		}
		if m, ok := provider.(interface{ ModelName() string }); ok {
			status.Model = m.ModelName()
		}
		providers = append(providers, status)
	}

	limiter := chain.Limiter()
	cooldownSeconds := int(limiter.CooldownRemaining().Round(time.Second) / time.Second)

	return success(c, map[string]any{
		"providers": providers,
		"limiter": limiterStatus{
			ConsecutiveErrors: limiter.ConsecutiveErrors(),
			CooldownSeconds:   cooldownSeconds,
		},
		"queue_depth": s.gw.QueueDepth(),
	})
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.history == nil {
		return fail(c, http.StatusNotFound, "History is not enabled", nil)
	}

	limit, err := parsePositiveInt(c.QueryParam("limit"), 50, 1, 500)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	records, err := s.history.Recent(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query translation history failed")
		return internalError(c, "Failed to load history")
	}

	return success(c, map[string]any{
		"items": records,
		"limit": limit,
	})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, errors.New("must be between " + strconv.Itoa(minValue) + " and " + strconv.Itoa(maxValue))
	}
	return value, nil
}
