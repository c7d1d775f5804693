package livetl

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	p.calls.Add(1)
	return req.Texts, nil
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{})

	if limiter.Burst() != DefaultConcurrency {
		t.Errorf("Expected burst %d, got %d", DefaultConcurrency, limiter.Burst())
	}
	if limiter.Limit() != 1 {
		t.Errorf("Expected 1 request per second, got %v", limiter.Limit())
	}
}

func TestNewRateLimiter_Burst(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 60, BurstSize: 3})

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Errorf("Expected to acquire token %d", i)
		}
	}
	if limiter.Allow() {
		t.Error("Expected fourth acquire to fail")
	}
}

func TestRateLimitedProvider(t *testing.T) {
	inner := &countingProvider{}
	p := NewRateLimitedProvider(inner, RateLimitConfig{
		RequestsPerMinute: 600, // one every 100ms
		BurstSize:         2,
	})

	ctx := context.Background()
	for _, text := range []string{"a", "b"} {
		if _, err := p.Translate(ctx, TranslateRequest{Texts: []string{text}}); err != nil {
			t.Fatalf("Translate failed: %v", err)
		}
	}

	start := time.Now()
	if _, err := p.Translate(ctx, TranslateRequest{Texts: []string{"c"}}); err != nil {
		t.Fatalf("Third translate failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Expected rate limit wait, but returned in %v", elapsed)
	}
	if inner.calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", inner.calls.Load())
	}
}

func TestRateLimitedProvider_ContextDone(t *testing.T) {
	inner := &countingProvider{}
	p := NewRateLimitedProvider(inner, RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1})

	p.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Translate(ctx, TranslateRequest{Texts: []string{"b"}})
	if err == nil {
		t.Fatal("Expected error when the wait exceeds the deadline")
	}
	if IsFallback(err) {
		t.Error("A throttled call is a transport failure, not a fallback")
	}
	if inner.calls.Load() != 1 {
		t.Errorf("Inner provider should not be called, got %d calls", inner.calls.Load())
	}
}
