package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Request is one completion call against a single model
type Request struct {
	Model  string
	System string
	Prompt string
}

// Response is the text of a completion. FinishReason is provider-specific and
// is reported when Text is empty.
type Response struct {
	Text         string
	FinishReason string
}

// Transport sends one completion request to a model endpoint (OpenAI-style
// chat completions, Gemini generateContent, ...). It does no retrying.
type Transport interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// StatusError is a non-2xx reply from the model endpoint. Its message carries
// the status code and body so the retry classifier can see markers like 429.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// NewTransport creates the transport for cfg.Provider ("openai" by default)
func NewTransport(cfg Config) Transport {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	switch cfg.Provider {
	case ProviderGemini:
		return &GeminiTransport{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, client: httpClient}
	case ProviderOpenAI:
		fallthrough
	default:
		return &OpenAITransport{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, client: httpClient}
	}
}
