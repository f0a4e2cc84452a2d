package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/transgate/internal/cache"
	"horse.fit/transgate/internal/language"
)

// HistoryRecorder persists completed translations. Recording is best-effort;
// gateway correctness never depends on it.
type HistoryRecorder interface {
	Record(ctx context.Context, req Request, result *Result) error
}

// LanguageDetector fills in a result's detected language when the winning
// provider did not report one.
type LanguageDetector interface {
	DetectISO6391(text string) string
}

// Config assembles a Gateway. Cache and Chain are required; History and
// Detector are optional.
type Config struct {
	Cache    cache.Store
	Chain    *Chain
	History  HistoryRecorder
	Detector LanguageDetector
	Pacing   time.Duration
	Logger   zerolog.Logger
}

// Gateway is the public entry point: one coherent translate operation over
// cache lookup, queue admission, and provider-chain execution. All mutable
// state (limiter, cache, endpoint rotation) lives behind one instance, so
// tests get clean state from fresh instances.
type Gateway struct {
	cache    cache.Store
	chain    *Chain
	queue    *RequestQueue
	history  HistoryRecorder
	detector LanguageDetector
	logger   zerolog.Logger
	now      func() time.Time
}

// New builds a Gateway. Call Start before serving traffic.
func New(cfg Config) (*Gateway, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("gateway cache is required")
	}
	if cfg.Chain == nil {
		return nil, fmt.Errorf("gateway provider chain is required")
	}

	g := &Gateway{
		cache:    cfg.Cache,
		chain:    cfg.Chain,
		history:  cfg.History,
		detector: cfg.Detector,
		logger:   cfg.Logger,
		now:      time.Now,
	}
	g.queue = NewRequestQueue(g.process, cfg.Pacing, cfg.Logger)
	return g, nil
}

// Start launches the queue drain loop. Idempotent.
func (g *Gateway) Start(ctx context.Context) {
	g.queue.Start(ctx)
}

// Chain exposes the provider chain for status reporting.
func (g *Gateway) Chain() *Chain {
	return g.chain
}

// QueueDepth reports how many requests wait in the queue.
func (g *Gateway) QueueDepth() int {
	return g.queue.Pending()
}

// Translate runs one translation through the gateway. Failures that are part
// of normal operation (chain exhaustion, active cooldown) come back as a
// Result with Success=false; only empty input, an invalid target language,
// or context cancellation produce an error.
func (g *Gateway) Translate(ctx context.Context, text, sourceLang, targetLang string) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	source := language.NormalizeSource(sourceLang)
	target := language.NormalizeCode(targetLang)
	if target == "" {
		return nil, fmt.Errorf("target language %q is not a valid language code", targetLang)
	}

	key := cache.Key(source, target, trimmed)
	if entry, ok := g.cache.Get(ctx, key); ok {
		g.logger.Debug().Str("key", key).Msg("translation cache hit")
		return resultFromEntry(entry), nil
	}

	resultCh := g.queue.Enqueue(Request{
		Text:        trimmed,
		SourceLang:  source,
		TargetLang:  target,
		SubmittedAt: g.now(),
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultCh:
		return result, nil
	}
}

// process runs inside the queue's single drain goroutine, so chain state,
// limiter state, and endpoint rotation need no further synchronization.
func (g *Gateway) process(ctx context.Context, req Request) *Result {
	started := g.now()
	result, err := g.chain.Translate(ctx, req)
	if err != nil {
		return failureResult(err)
	}

	if result.DetectedLang == "" && g.detector != nil && req.SourceLang == language.Auto {
		result.DetectedLang = g.detector.DetectISO6391(req.Text)
	}

	g.cache.Put(ctx, cache.Key(req.SourceLang, req.TargetLang, req.Text), entryFromResult(result))

	if g.history != nil {
		if recordErr := g.history.Record(ctx, req, result); recordErr != nil {
			g.logger.Warn().Err(recordErr).Msg("record translation history failed")
		}
	}

	g.logger.Info().
		Str("service", result.Service).
		Str("source", req.SourceLang).
		Str("target", req.TargetLang).
		Dur("latency", g.now().Sub(started)).
		Msg("translation completed")
	return result
}

// failureResult converts chain-boundary errors into the structured failure
// value callers receive; an awaited request is never left unresolved.
func failureResult(err error) *Result {
	var cooldownErr *CooldownError
	if errors.As(err, &cooldownErr) {
		return &Result{Success: false, Error: cooldownErr.Error()}
	}
	return &Result{Success: false, Error: err.Error()}
}

func resultFromEntry(entry *cache.Entry) *Result {
	return &Result{
		Success:      true,
		Text:         entry.Text,
		Service:      entry.Service,
		DetectedLang: entry.DetectedLang,
		SameLanguage: entry.SameLanguage,
	}
}

func entryFromResult(result *Result) *cache.Entry {
	return &cache.Entry{
		Text:         result.Text,
		Service:      result.Service,
		DetectedLang: result.DetectedLang,
		SameLanguage: result.SameLanguage,
	}
}
