package livetl

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig configures CircuitBreakerProvider.
type BreakerConfig struct {
	Failures    uint32        // Consecutive failures that open the circuit (default: 5)
	OpenTimeout time.Duration // Time before a probe is allowed (default: 30s)
	HalfOpenMax uint32        // Probes allowed while half-open (default: 1)
	CountWindow time.Duration // Interval after which closed-state counts reset (0 = never)
}

// CircuitBreakerProvider stops calling a failing service for a while. While
// the circuit is open every batch fails fast as a transport error, so its
// keys stay uncached and are fetched by a later Run.
type CircuitBreakerProvider struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

// NewCircuitBreakerProvider wraps provider. A nil logger disables logging.
func NewCircuitBreakerProvider(provider Provider, cfg BreakerConfig, logger *zap.Logger) *CircuitBreakerProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	probes := cfg.HalfOpenMax
	if probes == 0 {
		probes = 1
	}

	settings := gobreaker.Settings{
		Name:        "translation-service",
		MaxRequests: probes,
		Interval:    cfg.CountWindow,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &CircuitBreakerProvider{provider: provider, cb: gobreaker.NewCircuitBreaker(settings)}
}

// breakerSuccess reports whether err still shows a reachable service.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var providerErr *ProviderError
	if errors.As(err, &providerErr) && providerErr.StatusCode != 0 && providerErr.StatusCode < 500 {
		return providerErr.StatusCode != 429
	}
	var malformed *MalformedResponseError
	var mismatch *CountMismatchError
	return errors.As(err, &malformed) || errors.As(err, &mismatch)
}

// Translate forwards the request unless the circuit is open.
func (p *CircuitBreakerProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		return p.provider.Translate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &ProviderError{Message: "translation service unavailable", Cause: err}
	}
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

// State returns the breaker state.
func (p *CircuitBreakerProvider) State() gobreaker.State {
	return p.cb.State()
}
