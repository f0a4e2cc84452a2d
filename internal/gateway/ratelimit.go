package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	minAdmissionDelay = 1000 * time.Millisecond
	maxAdmissionDelay = 3000 * time.Millisecond
	backoffDelayCap   = 10 * time.Second
	cooldownDuration  = 60 * time.Second

	// Shifting past this many consecutive errors would overflow the delay
	// before the cap applies anyway.
	maxBackoffShift = 16
)

// RateLimiter is the process-wide admission gate in front of every outbound
// provider call. It spaces requests by a randomized delay, escalates that
// delay exponentially while consecutive errors accumulate, and refuses all
// admission during a cooldown triggered by a rate-limit signal.
//
// State machine: Normal (no errors, no cooldown) -> Backoff (errors > 0) on
// any failure -> Cooldown on a rate-limit-classified failure. Back to Normal
// only after the cooldown expires and a later call succeeds.
type RateLimiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	backoffCap time.Duration
	cooldown   time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
	rng   *rand.Rand

	mu                sync.Mutex
	lastRequestAt     time.Time
	consecutiveErrors int
	cooldownUntil     time.Time
}

// NewRateLimiter creates a limiter with the gateway's fixed timing profile.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		minDelay:   minAdmissionDelay,
		maxDelay:   maxAdmissionDelay,
		backoffCap: backoffDelayCap,
		cooldown:   cooldownDuration,
		now:        time.Now,
		sleep:      sleepContext,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Admit blocks until the limiter allows the next outbound call. It fails
// immediately with a CooldownError while a cooldown is active; no network
// attempt may be made in that case.
func (l *RateLimiter) Admit(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	if now.Before(l.cooldownUntil) {
		remaining := l.cooldownUntil.Sub(now)
		l.mu.Unlock()
		return &CooldownError{Remaining: remaining}
	}
	wait := l.targetDelay() - now.Sub(l.lastRequestAt)
	l.mu.Unlock()

	if wait > 0 {
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.lastRequestAt = l.now()
	l.mu.Unlock()
	return nil
}

// targetDelay computes the current inter-request delay. Callers hold l.mu.
func (l *RateLimiter) targetDelay() time.Duration {
	delay := l.minDelay
	if span := int64(l.maxDelay - l.minDelay); span > 0 {
		delay += time.Duration(l.rng.Int63n(span + 1))
	}
	if l.consecutiveErrors > 0 {
		shift := l.consecutiveErrors
		if shift > maxBackoffShift {
			shift = maxBackoffShift
		}
		delay <<= uint(shift)
		if delay > l.backoffCap || delay <= 0 {
			delay = l.backoffCap
		}
	}
	return delay
}

// RecordSuccess resets the consecutive error count.
func (l *RateLimiter) RecordSuccess() {
	l.mu.Lock()
	l.consecutiveErrors = 0
	l.mu.Unlock()
}

// RecordFailure increments the consecutive error count. A rate-limit signal
// additionally opens the 60-second cooldown window.
func (l *RateLimiter) RecordFailure(rateLimited bool) {
	l.mu.Lock()
	l.consecutiveErrors++
	if rateLimited {
		l.cooldownUntil = l.now().Add(l.cooldown)
	}
	l.mu.Unlock()
}

// ConsecutiveErrors reports the current failure streak.
func (l *RateLimiter) ConsecutiveErrors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consecutiveErrors
}

// CooldownRemaining reports how long admission stays blocked, zero when no
// cooldown is active.
func (l *RateLimiter) CooldownRemaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	remaining := l.cooldownUntil.Sub(l.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
