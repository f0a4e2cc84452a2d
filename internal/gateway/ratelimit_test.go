package gateway

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"
)

// testLimiter builds a limiter with an injected clock and a sleep that
// records requested durations instead of blocking.
func testLimiter(t *testing.T) (*RateLimiter, *time.Time, *[]time.Duration) {
	t.Helper()

	clock := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	var sleeps []time.Duration

	limiter := NewRateLimiter()
	limiter.rng = rand.New(rand.NewSource(1))
	limiter.now = func() time.Time { return clock }
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		clock = clock.Add(d)
		return nil
	}
	return limiter, &clock, &sleeps
}

func TestAdmit_DelayEscalatesWithErrorsAndCaps(t *testing.T) {
	t.Parallel()

	limiter, _, _ := testLimiter(t)

	var last time.Duration
	for errs := 1; errs <= 6; errs++ {
		limiter.mu.Lock()
		limiter.consecutiveErrors = errs
		delay := limiter.targetDelay()
		limiter.mu.Unlock()

		// Base delay is 1-3 s, shifted left once per consecutive error and
		// clamped at the cap.
		lower := minAdmissionDelay << uint(errs)
		if lower > backoffDelayCap {
			lower = backoffDelayCap
		}
		if delay < lower || delay > backoffDelayCap {
			t.Fatalf("delay out of range at %d errors: %v", errs, delay)
		}
		last = delay
	}
	if last != backoffDelayCap {
		t.Fatalf("expected delay pinned at cap after heavy backoff, got %v", last)
	}

	limiter.RecordSuccess()
	limiter.mu.Lock()
	baseline := limiter.targetDelay()
	limiter.mu.Unlock()
	if baseline < minAdmissionDelay || baseline > maxAdmissionDelay {
		t.Fatalf("baseline delay out of range after success: %v", baseline)
	}
}

func TestAdmit_WaitsOutRemainderOfDelay(t *testing.T) {
	t.Parallel()

	limiter, clock, sleeps := testLimiter(t)

	if err := limiter.Admit(context.Background()); err != nil {
		t.Fatalf("first admit: %v", err)
	}
	first := len(*sleeps)

	// A second admit right after the first must wait at least the minimum
	// inter-request delay minus elapsed time (none has elapsed here).
	if err := limiter.Admit(context.Background()); err != nil {
		t.Fatalf("second admit: %v", err)
	}
	if len(*sleeps) <= first {
		t.Fatal("second admit should have slept")
	}
	waited := (*sleeps)[len(*sleeps)-1]
	if waited < minAdmissionDelay || waited > maxAdmissionDelay {
		t.Fatalf("unexpected admission wait: %v", waited)
	}
	_ = clock
}

func TestRecordFailure_RateLimitOpensCooldown(t *testing.T) {
	t.Parallel()

	limiter, clock, _ := testLimiter(t)

	limiter.RecordFailure(true)
	if limiter.ConsecutiveErrors() != 1 {
		t.Fatalf("unexpected error count: %d", limiter.ConsecutiveErrors())
	}

	*clock = clock.Add(10 * time.Second)
	err := limiter.Admit(context.Background())
	var cooldownErr *CooldownError
	if !errors.As(err, &cooldownErr) {
		t.Fatalf("expected CooldownError, got %v", err)
	}
	if got := cooldownErr.RemainingSeconds(); got != 50 {
		t.Fatalf("expected 50 seconds remaining, got %d", got)
	}

	// After expiry, admission proceeds normally again.
	*clock = clock.Add(51 * time.Second)
	if err := limiter.Admit(context.Background()); err != nil {
		t.Fatalf("admit after cooldown expiry: %v", err)
	}
}

func TestRecordFailure_GenericFailureNoCooldown(t *testing.T) {
	t.Parallel()

	limiter, _, _ := testLimiter(t)

	limiter.RecordFailure(false)
	limiter.RecordFailure(false)
	if limiter.CooldownRemaining() != 0 {
		t.Fatalf("generic failures must not open a cooldown, remaining=%v", limiter.CooldownRemaining())
	}
	if err := limiter.Admit(context.Background()); err != nil {
		t.Fatalf("admit during backoff: %v", err)
	}
}

func TestIsRateLimitSignal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("Too Many Requests"), true},
		{errors.New("endpoint returned status 429"), true},
		{errors.New("MYMEMORY WARNING: rate limit reached"), true},
		{errors.New("connection refused"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsRateLimitSignal(tc.err); got != tc.want {
			t.Fatalf("IsRateLimitSignal(%v) = %t, want %t", tc.err, got, tc.want)
		}
	}
}
