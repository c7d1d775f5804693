package livetl

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns the retry policy used by the CLI. Delays stay
// well below the default batch timeout.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// backoff returns the delay before retry number attempt (0-based).
func (c RetryConfig) backoff(attempt int) time.Duration {
	delay := c.BaseDelay << attempt
	if delay <= 0 || (c.MaxDelay > 0 && delay > c.MaxDelay) {
		delay = c.MaxDelay
	}
	return delay
}

// WithRetry runs fn until it succeeds, returns a non-retryable error, or the
// retries are used up. The wait between attempts honours ctx.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) || attempt >= cfg.MaxRetries {
			return zero, err
		}

		timer := time.NewTimer(cfg.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// IsRetryable reports whether a failed call is worth repeating: transport
// failures flagged as retryable, throttling and server errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		if providerErr.Retryable {
			return true
		}
		return providerErr.StatusCode == http.StatusTooManyRequests || providerErr.StatusCode >= 500
	}
	return false
}

// RetryableProvider wraps a Provider with retry logic.
type RetryableProvider struct {
	provider Provider
	config   RetryConfig
	logger   *zap.Logger
}

// NewRetryableProvider creates a new provider with retry logic. A nil logger
// disables logging.
func NewRetryableProvider(provider Provider, cfg RetryConfig, logger *zap.Logger) *RetryableProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryableProvider{
		provider: provider,
		config:   cfg,
		logger:   logger,
	}
}

// Translate implements Provider with retry logic.
func (p *RetryableProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	attempt := 0
	return WithRetry(ctx, p.config, func(ctx context.Context) ([]string, error) {
		if attempt > 0 {
			p.logger.Debug("retrying translation batch",
				zap.Int("attempt", attempt),
				zap.String("lang", req.TargetLang),
				zap.Int("items", len(req.Texts)))
		}
		attempt++
		return p.provider.Translate(ctx, req)
	})
}
