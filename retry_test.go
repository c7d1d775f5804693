package livetl

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  5 * time.Millisecond,
		MaxDelay:   20 * time.Millisecond,
	}
}

func TestWithRetry_Success(t *testing.T) {
	callCount := 0
	result, err := WithRetry(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got %q", result)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestWithRetry_RetryableError(t *testing.T) {
	callCount := 0
	result, err := WithRetry(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		callCount++
		if callCount < 3 {
			return "", &ProviderError{Message: "connection reset", Retryable: true}
		}
		return "success", nil
	})

	if err != nil {
		t.Fatalf("Expected no error after retries, got: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got %q", result)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestWithRetry_NonRetryableError(t *testing.T) {
	callCount := 0
	_, err := WithRetry(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		callCount++
		return "", &ProviderError{Message: "bad request", StatusCode: 400}
	})

	if err == nil {
		t.Fatal("Expected error for non-retryable error")
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call for non-retryable error, got %d", callCount)
	}
}

func TestWithRetry_MaxRetriesExceeded(t *testing.T) {
	callCount := 0
	_, err := WithRetry(context.Background(), fastRetry(2), func(context.Context) (string, error) {
		callCount++
		return "", &ProviderError{Message: "unavailable", StatusCode: 503}
	})

	if err == nil {
		t.Fatal("Expected error after max retries")
	}
	// Initial attempt + 2 retries
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
	if !IsFallback(err) {
		t.Error("Last status error should still fall back to originals")
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := WithRetry(ctx, cfg, func(context.Context) (string, error) {
		return "", &ProviderError{Message: "rate limited", StatusCode: 429}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for attempt, w := range want {
		if got := cfg.backoff(attempt); got != w {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"retryable provider error", &ProviderError{Retryable: true}, true},
		{"non-retryable provider error", &ProviderError{Retryable: false}, false},
		{"too many requests", &ProviderError{StatusCode: 429}, true},
		{"server error", &ProviderError{StatusCode: 502}, true},
		{"client error", &ProviderError{StatusCode: 401}, false},
		{"malformed reply", &MalformedResponseError{Reason: "not JSON"}, false},
		{"generic error", errors.New("some error"), false},
		{"context canceled", context.Canceled, false},
		{"context deadline", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

type failingProvider struct {
	failCount int
	callCount int
}

func (p *failingProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	p.callCount++
	if p.callCount <= p.failCount {
		return nil, &ProviderError{Message: "temporary failure", Retryable: true}
	}
	return []string{"traduit"}, nil
}

func TestRetryableProvider(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	inner := &failingProvider{failCount: 2}

	p := NewRetryableProvider(inner, fastRetry(3), zap.New(core))

	result, err := p.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"hello"},
		TargetLang: "fr",
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if len(result) != 1 || result[0] != "traduit" {
		t.Errorf("Unexpected result: %v", result)
	}
	if inner.callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", inner.callCount)
	}
	if n := logs.FilterMessage("retrying translation batch").Len(); n != 2 {
		t.Errorf("Expected 2 retry logs, got %d", n)
	}
}
