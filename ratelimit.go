package livetl

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures request throttling towards the service.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum sustained requests per minute (default: 60)
	BurstSize         int // Maximum burst size (default: Concurrency)
}

// NewRateLimiter builds a token bucket from cfg.
func NewRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = DefaultConcurrency
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

// RateLimitedProvider wraps a Provider with rate limiting.
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider creates a new rate-limited provider.
func NewRateLimitedProvider(provider Provider, cfg RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(cfg),
	}
}

// Translate waits for a token, then forwards the request. A wait that cannot
// finish before ctx ends returns the context error.
func (p *RateLimitedProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{Message: "rate limit wait exceeds deadline", Cause: err}
	}
	return p.provider.Translate(ctx, req)
}

// Limiter returns the underlying limiter for inspection.
func (p *RateLimitedProvider) Limiter() *rate.Limiter {
	return p.limiter
}
