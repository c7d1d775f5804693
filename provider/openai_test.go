package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZaguanLabs/livetl"
)

func chatServer(t *testing.T, status int, content string) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var bodies []map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		reply := map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]interface{}{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}}},
		}
		json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func TestOpenAIProvider_Translate(t *testing.T) {
	srv, bodies := chatServer(t, http.StatusOK, `["Accueil","Réserver un rendez-vous"]`)
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL})

	got, err := p.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Home", "Book Appointment"},
		TargetLang: "fr",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got[0] != "Accueil" || got[1] != "Réserver un rendez-vous" {
		t.Errorf("Unexpected translations: %v", got)
	}

	body := (*bodies)[0]
	if body["model"] != DefaultOpenAIModel {
		t.Errorf("Expected default model, got %v", body["model"])
	}
	if body["max_completion_tokens"] != float64(DefaultMaxOutputTokens) {
		t.Errorf("Expected token cap, got %v", body["max_completion_tokens"])
	}
}

func TestOpenAIProvider_StatusFallsBack(t *testing.T) {
	srv, _ := chatServer(t, http.StatusServiceUnavailable, "")
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL})

	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Home"}, TargetLang: "fr"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if !livetl.IsFallback(err) {
		t.Errorf("Status errors should fall back, got %v", err)
	}
	if !livetl.IsRetryable(err) {
		t.Errorf("503 should be retryable, got %v", err)
	}
}

func TestOpenAIProvider_MalformedReply(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, "Sure! Here you go: Accueil")
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL})

	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Home"}, TargetLang: "fr"})
	if !livetl.IsFallback(err) {
		t.Errorf("Expected fallback error, got %v", err)
	}
}

func TestOpenAIProvider_NonStringItems(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, `[{"text":"Accueil"}]`)
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL})

	got, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Home"}, TargetLang: "fr"})
	if !livetl.IsFallback(err) {
		t.Errorf("Expected fallback error, got %v, %v", got, err)
	}
}

func TestOpenAIProvider_Empty(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: "http://127.0.0.1:0"})

	got, err := p.Translate(context.Background(), TranslateRequest{TargetLang: "fr"})
	if err != nil || len(got) != 0 {
		t.Errorf("Empty batch should not call the service, got %v, %v", got, err)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test"})

	prompt := p.buildSystemPrompt(TranslateRequest{
		TargetLang:    "th",
		Context:       "a clinic booking site",
		ExcludedTerms: []string{"MindCare", "SMS"},
	})

	for _, want := range []string{"JSON array of strings", "Thai", "a clinic booking site", "MindCare, SMS"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt should contain %q:\n%s", want, prompt)
		}
	}
}

func TestBuildUserMessage(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test"})

	msg := p.buildUserMessage(TranslateRequest{Texts: []string{"Hello", "World"}, TargetLang: "ms"})
	if msg != `{"target":"ms","items":["Hello","World"]}` {
		t.Errorf("Unexpected user message: %s", msg)
	}
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider()

	result, err := m.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Home", "Unknown text"},
		TargetLang: "fr",
	})
	if err != nil {
		t.Fatalf("MockProvider.Translate failed: %v", err)
	}
	if result[0] != "Accueil" {
		t.Errorf("Expected 'Accueil', got %q", result[0])
	}
	if result[1] != "[fr] Unknown text" {
		t.Errorf("Expected '[fr] Unknown text', got %q", result[1])
	}
	if m.CallCount() != 1 || len(m.Requests()) != 1 {
		t.Errorf("Expected one recorded call, got %d", m.CallCount())
	}

	m.Reset()
	if m.CallCount() != 0 {
		t.Error("Reset should clear the call count")
	}
}
