package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// Delay before falling through to the next provider.
	providerRetryDelay = 1 * time.Second
	// Longer pause when the failure looked like a rate limit, so the next
	// provider is not hit while the shared budget is hot.
	rateLimitRetryDelay = 5 * time.Second
)

// Chain tries providers in fixed priority order until one succeeds. Every
// attempt passes through the limiter; every failure feeds backoff state.
type Chain struct {
	providers []Provider
	limiter   *RateLimiter
	logger    zerolog.Logger

	retryDelay       time.Duration
	rateLimitedDelay time.Duration
	sleep            func(context.Context, time.Duration) error
}

// NewChain builds a provider chain over the given adapters, in order.
func NewChain(limiter *RateLimiter, logger zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers:        providers,
		limiter:          limiter,
		logger:           logger,
		retryDelay:       providerRetryDelay,
		rateLimitedDelay: rateLimitRetryDelay,
		sleep:            sleepContext,
	}
}

// Providers returns the adapters in priority order.
func (c *Chain) Providers() []Provider {
	return c.providers
}

// Limiter exposes the shared admission limiter for status reporting.
func (c *Chain) Limiter() *RateLimiter {
	return c.limiter
}

// Translate walks the chain. Per-provider failures are absorbed and logged;
// only an active cooldown or total exhaustion escape to the caller.
func (c *Chain) Translate(ctx context.Context, req Request) (*Result, error) {
	var lastErr error
	for _, provider := range c.providers {
		if r, ok := provider.(readinessProvider); ok && !r.Ready() {
			c.logger.Debug().Str("provider", provider.Name()).Msg("provider not ready, skipping")
			continue
		}

		if err := c.limiter.Admit(ctx); err != nil {
			// Cooldown blocks every provider equally; trying the rest
			// of the chain would be refused the same way.
			return nil, err
		}

		result, err := provider.Translate(ctx, req)
		if err == nil && result != nil {
			c.limiter.RecordSuccess()
			if result.Service == "" {
				result.Service = provider.Name()
			}
			return result, nil
		}
		if err == nil {
			err = fmt.Errorf("provider %s returned no result", provider.Name())
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		rateLimited := IsRateLimitSignal(err)
		c.limiter.RecordFailure(rateLimited)
		c.logger.Warn().
			Err(err).
			Str("provider", provider.Name()).
			Bool("rate_limited", rateLimited).
			Msg("translation provider failed")
		lastErr = err

		delay := c.retryDelay
		if rateLimited {
			delay = c.rateLimitedDelay
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no translation providers available")
	}
	return nil, &ChainExhaustedError{Last: lastErr}
}
