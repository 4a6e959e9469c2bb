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

func TestNewGroqClient_MissingKey(t *testing.T) {
	_, err := NewGroqClient(DefaultVerifierConfig(), "")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestGroqClient_GenerateJSON(t *testing.T) {
	var captured groqChatRequest
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := groqChatResponse{
			Choices: []groqChoice{
				{Message: groqMessage{Role: "assistant", Content: `{"results": [], "summary": null}`}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	origURL := groqAPIURL
	groqAPIURL = server.URL
	defer func() { groqAPIURL = origURL }()

	client, err := NewGroqClient(DefaultVerifierConfig(), "test-key")
	require.NoError(t, err)

	reply, err := client.GenerateJSON(context.Background(), "audit these", "--- SOURCE TEXT ---")
	require.NoError(t, err)
	assert.Equal(t, `{"results": [], "summary": null}`, reply)

	assert.Equal(t, "Bearer test-key", authHeader)
	assert.Equal(t, "llama-3.1-8b-instant", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "audit these", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
	assert.InDelta(t, 0.1, captured.Temperature, 1e-6)
}

func TestGroqClient_GenerateJSON_StripsFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := groqChatResponse{
			Choices: []groqChoice{
				{Message: groqMessage{Role: "assistant", Content: "```json\n{\"results\": []}\n```"}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	origURL := groqAPIURL
	groqAPIURL = server.URL
	defer func() { groqAPIURL = origURL }()

	client, err := NewGroqClient(DefaultVerifierConfig(), "test-key")
	require.NoError(t, err)

	reply, err := client.GenerateJSON(context.Background(), "audit", "text")
	require.NoError(t, err)
	assert.Equal(t, `{"results": []}`, reply)
}

func TestGroqClient_GenerateJSON_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit reached"}}`))
	}))
	defer server.Close()

	origURL := groqAPIURL
	groqAPIURL = server.URL
	defer func() { groqAPIURL = origURL }()

	client, err := NewGroqClient(DefaultVerifierConfig(), "test-key")
	require.NoError(t, err)

	_, err = client.GenerateJSON(context.Background(), "audit", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGroqClient_GenerateJSON_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	origURL := groqAPIURL
	groqAPIURL = server.URL
	defer func() { groqAPIURL = origURL }()

	client, err := NewGroqClient(DefaultVerifierConfig(), "test-key")
	require.NoError(t, err)

	_, err = client.GenerateJSON(context.Background(), "audit", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
