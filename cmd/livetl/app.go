package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ZaguanLabs/livetl"
	"github.com/ZaguanLabs/livetl/cache"
	"github.com/ZaguanLabs/livetl/config"
	"github.com/ZaguanLabs/livetl/dom"
	"github.com/ZaguanLabs/livetl/provider"
	"github.com/ZaguanLabs/livetl/store"
)

// app holds the wired components of one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider livetl.Provider
	cache    livetl.LanguageCache
	local    store.KV
	session  store.KV
	closers  []io.Closer
}

// loadApp reads the configuration and builds logger, provider, cache and
// preference stores. needProvider is false for commands that never
// translate.
func loadApp(flags *globalFlags, stderr io.Writer, needProvider bool) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.provider != "" {
		cfg.Provider.Type = flags.provider
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := newLogger(stderr, cfg.Log.Level, flags.debug)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if needProvider {
		if a.provider, err = buildProvider(cfg, logger); err != nil {
			return nil, err
		}
	}

	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			URL:       cfg.Redis.URL,
			TTL:       cfg.Redis.TTL,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		a.cache = rc
		a.session = store.NewRedisStore(rc.Client(), cfg.Redis.KeyPrefix+rc.Session()+":pref:", cfg.Redis.TTL)
		a.closers = append(a.closers, rc)
		logger.Debug("using redis cache", zap.String("session", rc.Session()))
	} else {
		a.cache = cache.NewInMemoryCache()
		a.session = store.NewMemoryStore()
	}

	if a.local, err = store.OpenFileStore(cfg.Preferences.Path); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// buildProvider creates the configured service and wraps it with rate
// limiting, the circuit breaker and retries, innermost first.
func buildProvider(cfg *config.Config, logger *zap.Logger) (livetl.Provider, error) {
	var p livetl.Provider
	switch cfg.Provider.Type {
	case config.ProviderMock:
		return provider.NewMockProvider(), nil
	case config.ProviderHTTP:
		p = provider.NewHTTPProvider(provider.HTTPConfig{
			URL:     cfg.Provider.URL,
			APIKey:  cfg.Provider.APIKey,
			Headers: cfg.Provider.Headers,
		})
	case config.ProviderOpenAI:
		key := cfg.Provider.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, errors.New("API key required (provider.api_key, LIVETL_PROVIDER_API_KEY or OPENAI_API_KEY)")
		}
		p = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:      key,
			Model:       cfg.Provider.Model,
			Temperature: float32(cfg.Provider.Temperature),
			MaxTokens:   cfg.Provider.MaxTokens,
			BaseURL:     cfg.Provider.URL,
		})
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Provider.Type)
	}

	if cfg.RateLimit.RequestsPerMinute > 0 {
		p = livetl.NewRateLimitedProvider(p, livetl.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			BurstSize:         cfg.RateLimit.Burst,
		})
	}
	if cfg.Breaker.Enabled {
		p = livetl.NewCircuitBreakerProvider(p, livetl.BreakerConfig{
			Failures:    cfg.Breaker.Failures,
			OpenTimeout: cfg.Breaker.OpenTimeout,
		}, logger)
	}
	return livetl.NewRetryableProvider(p, cfg.RetryPolicy(), logger), nil
}

// newEngine builds an engine for doc. Paint waits are skipped: there is no
// renderer to wait for.
func (a *app) newEngine(doc *dom.Document, onEvent livetl.EventHandler) *livetl.Engine {
	opts := append(a.cfg.EngineOptions(),
		livetl.WithLogger(a.logger),
		livetl.WithCache(a.cache),
		livetl.WithPreferences(a.local, a.session),
		livetl.WithFrames(dom.ImmediateFrames{}),
		livetl.WithEventHandler(onEvent),
	)
	return livetl.NewEngine(doc, a.provider, opts...)
}

// Close releases connections and flushes the logger.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
