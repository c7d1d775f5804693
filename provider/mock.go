package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider is a deterministic in-process Provider for tests and dry runs.
// Known strings come from Translations; unknown strings are tagged with the
// target language, e.g. "[fr] Home".
type MockProvider struct {
	mu           sync.Mutex
	Translations map[string]map[string]string // lang -> source -> translation
	Err          error                        // Returned by every call when set
	calls        int
	requests     []TranslateRequest
}

// NewMockProvider creates a mock provider with a few French strings.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]map[string]string{
			"fr": {
				"Home":             "Accueil",
				"Book Appointment": "Réserver un rendez-vous",
				"Hello World":      "Bonjour le monde",
			},
		},
	}
}

// Translate returns mock translations.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	known := m.Translations[req.TargetLang]
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if translation, ok := known[strings.TrimSpace(text)]; ok {
			results[i] = translation
		} else {
			results[i] = fmt.Sprintf("[%s] %s", req.TargetLang, text)
		}
	}
	return results, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request received.
func (m *MockProvider) Requests() []TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranslateRequest(nil), m.requests...)
}

// Reset clears the recorded calls.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.requests = nil
}

var _ Provider = (*MockProvider)(nil)
