package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ZaguanLabs/livetl"
	"github.com/sashabaranov/go-openai"
)

// Defaults target the SEA-LION chat endpoint, which speaks the OpenAI
// chat-completions protocol.
const (
	DefaultOpenAIBaseURL   = "https://api.sea-lion.ai/v1"
	DefaultOpenAIModel     = "aisingapore/Llama-SEA-LION-v3-70B-IT"
	DefaultTemperature     = 0.1
	DefaultMaxOutputTokens = 400
)

// OpenAIProvider translates batches through an OpenAI-compatible chat API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // Bearer token
	Model       string  // Model to use (default: DefaultOpenAIModel)
	Temperature float32 // Temperature for generation (default: 0.1)
	MaxTokens   int     // Completion token cap (default: 400)
	BaseURL     string  // API base URL (default: DefaultOpenAIBaseURL)
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = DefaultOpenAIBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Translate translates one batch.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature:         p.temperature,
		MaxCompletionTokens: p.maxTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, toProviderError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &livetl.MalformedResponseError{Reason: "no choices in reply"}
	}

	return parseTranslations(resp.Choices[0].Message.Content, len(req.Texts))
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	var b strings.Builder
	b.WriteString(`You translate short UI strings precisely.
- Translate to the target language.
- Keep numbers, punctuation, emojis, and brand names.
- Return ONLY a JSON array of strings, same order/length as input.`)

	if name := livetl.GetLanguageName(req.TargetLang); name != req.TargetLang {
		fmt.Fprintf(&b, "\n- The target language is %s.", name)
	}
	if req.Context != "" {
		fmt.Fprintf(&b, "\n- The strings come from: %s.", req.Context)
	}
	if len(req.ExcludedTerms) > 0 {
		fmt.Fprintf(&b, "\n- Keep these terms exactly as written: %s.", strings.Join(req.ExcludedTerms, ", "))
	}
	return b.String()
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	data, _ := json.Marshal(struct {
		Target string   `json:"target"`
		Items  []string `json:"items"`
	}{req.TargetLang, req.Texts})
	return string(data)
}

// toProviderError maps client errors. Replies with an HTTP status fall back
// to the originals; failures without one are transport errors.
func toProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &livetl.ProviderError{
			Message:    "chat completion rejected",
			Cause:      err,
			StatusCode: apiErr.HTTPStatusCode,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &livetl.ProviderError{
			Message:    "chat completion failed",
			Cause:      err,
			StatusCode: reqErr.HTTPStatusCode,
		}
	}

	return &livetl.ProviderError{
		Message:   "chat completion call failed",
		Cause:     err,
		Retryable: isRetryableError(err),
	}
}

func isRetryableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"eof",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

var _ Provider = (*OpenAIProvider)(nil)
