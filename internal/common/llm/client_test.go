// internal/common/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsqa/internal/common/config"
	stderrors "newsqa/internal/common/errors"
)

// ==========================
// Test Helper Functions
// ==========================

func completionBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.LLMConfig{
		BaseURL:     server.URL,
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Timeout:     5000,
		MaxRetries:  1,
		Temperature: 0.1,
	})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestClient_Complete_Success(t *testing.T) {
	var captured map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody(`{"intent": "FACTOID"}`))
	})

	out, err := client.Complete(context.Background(), []Message{
		SystemMessage("classify"),
		UserMessage("who won"),
	})

	require.NoError(t, err)
	assert.Equal(t, `{"intent": "FACTOID"}`, out)
	assert.Equal(t, "gpt-4o-mini", captured["model"])
	// JSON-object mode is always requested.
	rf, ok := captured["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_object", rf["type"])
	msgs, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestClient_Complete_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		if attempts == 1 {
			// Empty first choice forces a retry.
			json.NewEncoder(w).Encode(completionBody(""))
			return
		}
		json.NewEncoder(w).Encode(completionBody("second try"))
	})

	out, err := client.Complete(context.Background(), []Message{UserMessage("q")})

	require.NoError(t, err)
	assert.Equal(t, "second try", out)
	assert.Equal(t, 2, attempts)
}

// ==========================
// Error Handling Tests
// ==========================

func TestClient_Complete_ExhaustedRetries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("   "))
	})

	_, err := client.Complete(context.Background(), []Message{UserMessage("q")})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionFailed)
}

func TestClient_Complete_CanceledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("too late"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, []Message{UserMessage("q")})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionTimeout)
}

func TestMessageHelpers(t *testing.T) {
	assert.Equal(t, Message{Role: "system", Content: "a"}, SystemMessage("a"))
	assert.Equal(t, Message{Role: "user", Content: "b"}, UserMessage("b"))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want stderrors.ErrorCode
	}{
		{"timeout", ErrCompletionTimeout, stderrors.ErrCodeUpstreamTimeout},
		{"wrapped timeout", fmt.Errorf("stage: %w", ErrCompletionTimeout), stderrors.ErrCodeUpstreamTimeout},
		{"empty completion", ErrEmptyCompletion, stderrors.ErrCodeUpstreamMalformedResponse},
		{"exhausted retries", fmt.Errorf("%w: connection refused", ErrCompletionFailed), stderrors.ErrCodeBackendUnavailable},
		{"unknown error", errors.New("boom"), stderrors.ErrCodeBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}
