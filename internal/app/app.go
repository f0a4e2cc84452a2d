// Package app wires configuration, cache, providers, and the gateway into a
// runnable service, and hosts the command-line entry points.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/transgate/internal/cache"
	"horse.fit/transgate/internal/config"
	"horse.fit/transgate/internal/gateway"
	"horse.fit/transgate/internal/history"
	"horse.fit/transgate/internal/langdetect"
	"horse.fit/transgate/internal/providerconf"
)

// Runtime holds the assembled service and the handles that need closing.
type Runtime struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Gateway *gateway.Gateway
	History *history.Store

	redisStore *cache.RedisStore
	local      *gateway.LocalProvider
}

// BuildOptions toggles optional parts of the runtime. The one-shot CLI skips
// history so a missing database never blocks a translation.
type BuildOptions struct {
	WithHistory bool
}

// Build assembles the full gateway runtime from configuration.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts BuildOptions) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	overrides, err := providerconf.Load(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load provider overrides: %w", err)
	}

	rt := &Runtime{
		Config: cfg,
		Logger: logger,
	}

	var store cache.Store
	if cfg.SharedCacheEnabled() {
		redisStore, err := cache.NewRedisStore(cfg.RedisURL, 0)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		if err := redisStore.Ping(ctx); err != nil {
			_ = redisStore.Close()
			return nil, fmt.Errorf("ping redis cache: %w", err)
		}
		rt.redisStore = redisStore
		store = redisStore
		logger.Info().Msg("using shared redis translation cache")
	} else {
		store = cache.NewMemoryStore(cfg.CacheCapacity)
	}

	localEndpoint := overrides.Local.Endpoint
	if localEndpoint == "" {
		localEndpoint = cfg.LocalEngineEndpoint
	}
	localModel := overrides.Local.Model
	if localModel == "" {
		localModel = cfg.LocalEngineModel
	}

	lingva := gateway.NewLingvaProvider(overrides.Lingva.Endpoints)
	myMemory := gateway.NewMyMemoryProvider(overrides.MyMemory.Endpoint)
	rt.local = gateway.NewLocalProvider(localEndpoint, localModel)

	chain := gateway.NewChain(gateway.NewRateLimiter(), logger, lingva, myMemory, rt.local)

	var recorder gateway.HistoryRecorder
	if opts.WithHistory && cfg.HistoryEnabled() {
		historyStore, err := history.Open(ctx, cfg.DatabaseURL, cfg.Environment)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open history store: %w", err)
		}
		rt.History = historyStore
		recorder = &historyRecorder{store: historyStore}
		logger.Info().Msg("translation history enabled")
	}

	gw, err := gateway.New(gateway.Config{
		Cache:    store,
		Chain:    chain,
		History:  recorder,
		Detector: langdetect.New(),
		Logger:   logger,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("build gateway: %w", err)
	}
	rt.Gateway = gw

	return rt, nil
}

// Start launches the queue drain loop and the local engine warmup probe.
func (rt *Runtime) Start(ctx context.Context) {
	rt.local.StartWarmup(ctx, rt.Logger)
	rt.Gateway.Start(ctx)
}

// Close releases backend connections. Safe on a partially built runtime.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.History != nil {
		if err := rt.History.Close(); err != nil {
			rt.Logger.Warn().Err(err).Msg("close history store failed")
		}
	}
	if rt.redisStore != nil {
		if err := rt.redisStore.Close(); err != nil {
			rt.Logger.Warn().Err(err).Msg("close redis cache failed")
		}
	}
}

type historySaver interface {
	Save(ctx context.Context, record *history.Record) error
}

// historyRecorder adapts the history store to the gateway's recorder
// interface. Only successful translations are persisted.
type historyRecorder struct {
	store historySaver
}

func (h *historyRecorder) Record(ctx context.Context, req gateway.Request, result *gateway.Result) error {
	if result == nil || !result.Success {
		return nil
	}
	return h.store.Save(ctx, &history.Record{
		SourceText:     req.Text,
		TranslatedText: result.Text,
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
		DetectedLang:   result.DetectedLang,
		Service:        result.Service,
		SameLanguage:   result.SameLanguage,
		CreatedAt:      time.Now().UTC(),
	})
}
