package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicCompleteSendsSingleUserMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, AnthropicAPIVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "summarize this", req.Messages[0].Content)

		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContentBlock{{Type: "text", Text: "a summary"}},
		})
	}))
	defer server.Close()

	client := NewAnthropicLLM(WithAnthropicAPIKey("test-key"), WithAnthropicBaseURL(server.URL))

	out, err := client.Complete(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "a summary", out)
}

func TestAnthropicCompletePropagatesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(anthropicError{})
	}))
	defer server.Close()

	client := NewAnthropicLLM(WithAnthropicAPIKey("bad-key"), WithAnthropicBaseURL(server.URL))

	_, err := client.Complete(context.Background(), "hello")
	assert.Error(t, err)
}
