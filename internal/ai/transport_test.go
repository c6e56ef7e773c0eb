package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAITransport_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	tr := NewTransport(Config{Provider: ProviderOpenAI, BaseURL: srv.URL + "/v1", APIKey: "secret"})
	resp, err := tr.Complete(context.Background(), Request{Model: "m1", System: "sys", Prompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "m1", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "sys"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "hello"}, got.Messages[1])
}

func TestOpenAITransport_StatusErrorIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	tr := NewTransport(Config{BaseURL: srv.URL, APIKey: "k"})
	_, err := tr.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, ClassQuota, Classify(err))
}

func TestOpenAITransport_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	tr := NewTransport(Config{BaseURL: srv.URL, APIKey: "k"})
	resp, err := tr.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.Equal(t, "no_choices", resp.FinishReason)
}

func TestGeminiTransport_Complete(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", r.URL.Path)
		assert.Equal(t, "gkey", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"part one, "},{"text":"part two"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	tr := NewTransport(Config{Provider: ProviderGemini, BaseURL: srv.URL + "/v1beta", APIKey: "gkey"})
	resp, err := tr.Complete(context.Background(), Request{Model: "gemini-pro", System: "expert", Prompt: "check"})
	require.NoError(t, err)

	assert.Equal(t, "part one, part two", resp.Text)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "expert", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.SafetySettings, len(geminiHarmCategories))
	for _, s := range got.SafetySettings {
		assert.Equal(t, "BLOCK_NONE", s.Threshold)
	}
}

func TestGeminiTransport_KeyNotInErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	tr := NewTransport(Config{Provider: ProviderGemini, BaseURL: addr, APIKey: "SECRET-KEY-123"})
	_, err := tr.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")

	client, err := NewClient(Config{
		Provider:      ProviderGemini,
		BaseURL:       addr,
		Model:         "m",
		FallbackModel: "m2",
		APIKey:        "SECRET-KEY-123",
		MaxAttempts:   2,
		BaseDelay:     time.Millisecond,
	}, nil, nil)
	require.NoError(t, err)

	res := client.GenerateJSON(context.Background(), "p", "")
	require.False(t, res.OK())
	assert.NotContains(t, res.Error, "SECRET-KEY-123")
}

func TestGeminiTransport_BlockedPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	tr := NewTransport(Config{Provider: ProviderGemini, BaseURL: srv.URL, APIKey: "k"})
	resp, err := tr.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.Equal(t, "SAFETY", resp.FinishReason)
}
