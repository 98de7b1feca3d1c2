package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampusgratis/assistant/internal/prompt"
	"github.com/kampusgratis/assistant/internal/stores/session"
)

func newTestInvoker(serverURL string, timeout time.Duration) *Invoker {
	return NewInvoker(Config{
		APIKey:     "test-key",
		BaseURL:    serverURL + "/v1",
		Model:      "deepseek-chat",
		Timeout:    timeout,
		InputRate:  0.14,
		OutputRate: 0.28,
	})
}

func completionResponse(text string, promptTokens, completionTokens int) map[string]any {
	return map[string]any{
		"id":      "cmpl-test",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "deepseek-chat",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": text},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	}
}

func TestGenerateSuccess(t *testing.T) {
	var captured struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse("Biaya kuliah gratis.", 1_000_000, 500_000))
	}))
	defer server.Close()

	invoker := newTestInvoker(server.URL, 5*time.Second)
	result := invoker.Generate(context.Background(), prompt.Payload{
		SystemInstruction: "Anda adalah asisten virtual.",
		ContextBlock:      "FAQ 1 (relevance: 0.90):\nQ: Berapa biaya kuliah?\nA: Gratis.",
		History: []session.Turn{
			{Role: session.TurnRoleUser, Content: "Halo"},
			{Role: session.TurnRoleAssistant, Content: "Halo! Ada yang bisa dibantu?"},
		},
		UserMessage: "Berapa biaya kuliah?",
	}, 0.7, 800)

	require.True(t, result.Success)
	assert.Equal(t, "Biaya kuliah gratis.", result.Text)
	assert.Equal(t, 1_500_000, result.TotalTokens)

	// 1M prompt tokens at $0.14 + 0.5M completion tokens at $0.28
	assert.InDelta(t, 0.28, result.CostUSD, 1e-9)

	// system + two history turns + user message
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "Context:")
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "Berapa biaya kuliah?", captured.Messages[3].Content)
}

func TestGenerateUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream exploded", "type": "server_error"},
		})
	}))
	defer server.Close()

	invoker := newTestInvoker(server.URL, 5*time.Second)
	result := invoker.Generate(context.Background(), prompt.Payload{UserMessage: "hi"}, 0.7, 100)

	assert.False(t, result.Success)
	assert.Equal(t, ReasonUpstreamError, result.Reason)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.Error(t, result.Err)
}

func TestGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(completionResponse("too late", 1, 1))
	}))
	defer server.Close()

	invoker := newTestInvoker(server.URL, 50*time.Millisecond)

	start := time.Now()
	result := invoker.Generate(context.Background(), prompt.Payload{UserMessage: "hi"}, 0.7, 100)
	elapsed := time.Since(start)

	assert.False(t, result.Success)
	assert.Equal(t, ReasonTimeout, result.Reason)
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestGenerateTransportError(t *testing.T) {
	// Nothing listens on this address
	invoker := NewInvoker(Config{
		APIKey:  "test-key",
		BaseURL: "http://127.0.0.1:1/v1",
		Model:   "deepseek-chat",
		Timeout: 2 * time.Second,
	})

	result := invoker.Generate(context.Background(), prompt.Payload{UserMessage: "hi"}, 0.7, 100)

	assert.False(t, result.Success)
	assert.Equal(t, ReasonTransportError, result.Reason)
}
