package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyInput rejects a request whose trimmed text is empty, before any
// cache or queue interaction.
var ErrEmptyInput = errors.New("translation text is empty")

// ProviderError reports a single adapter/endpoint failure. It never escapes
// the chain; it only drives fallback and backoff.
type ProviderError struct {
	Provider string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// CooldownError rejects admission while a rate-limit cooldown is active.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("rate limit cooldown active, try again in %d seconds", e.RemainingSeconds())
}

// RemainingSeconds reports the cooldown remainder rounded up to whole
// seconds, so a caller is never told to retry too early.
func (e *CooldownError) RemainingSeconds() int {
	return int((e.Remaining + time.Second - 1) / time.Second)
}

// ChainExhaustedError reports that every provider in the chain failed. Last
// holds the final underlying provider error.
type ChainExhaustedError struct {
	Last error
}

func (e *ChainExhaustedError) Error() string {
	return fmt.Sprintf("all translation providers failed: %v", e.Last)
}

func (e *ChainExhaustedError) Unwrap() error {
	return e.Last
}

// IsRateLimitSignal classifies a provider failure as a rate-limit signal.
// Matches "too many requests", an embedded 429 status, or the literal phrase
// "rate limit" anywhere in the error text.
func IsRateLimitSignal(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
