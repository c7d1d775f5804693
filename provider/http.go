package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ZaguanLabs/livetl"
)

// HTTPProvider talks to a plain JSON translation endpoint.
//
// Request body:
//
//	{"target": "fr", "source": "en", "items": ["Home", "Book Appointment"]}
//
// The reply is {"translations": [...]} or a bare array of the same length.
type HTTPProvider struct {
	client *http.Client
	url    string
	apiKey string
	header http.Header
}

// HTTPConfig holds configuration for the HTTP provider.
type HTTPConfig struct {
	URL     string            // Endpoint receiving one POST per batch
	APIKey  string            // Sent as a bearer token when set
	Headers map[string]string // Extra request headers
	Client  *http.Client      // Defaults to a client without timeout; batches carry their own deadline
}

// maxReplyBytes bounds the reply read into memory.
const maxReplyBytes = 8 << 20

// NewHTTPProvider creates a new HTTP provider.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport}
	}

	header := make(http.Header)
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}

	return &HTTPProvider{
		client: client,
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		header: header,
	}
}

type httpRequest struct {
	Target string   `json:"target"`
	Source string   `json:"source,omitempty"`
	Items  []string `json:"items"`
}

// Translate posts one batch.
func (p *HTTPProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	body, err := json.Marshal(httpRequest{Target: req.TargetLang, Source: req.SourceLang, Items: req.Texts})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, &livetl.ProviderError{Message: "building request", Cause: err}
	}
	for k, v := range p.header {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", livetl.UserAgent())
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &livetl.ProviderError{Message: "request failed", Cause: err, Retryable: isTemporary(err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &livetl.ProviderError{Message: "reading reply", Cause: err, Retryable: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &livetl.ProviderError{
			Message:    "translation service returned " + http.StatusText(resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return parseTranslations(string(data), len(req.Texts))
}

func isTemporary(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

var _ Provider = (*HTTPProvider)(nil)
