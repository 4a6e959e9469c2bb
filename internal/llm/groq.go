package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// groqAPIURL is the Groq chat completions endpoint (OpenAI-compatible).
// Package-level var for test substitution.
var groqAPIURL = "https://api.groq.com/openai/v1/chat/completions"

// GroqClient implements Client for Groq's OpenAI-compatible chat API, the
// verifier-stage provider.
type GroqClient struct {
	apiKey string
	cfg    ModelConfig
	client *http.Client
}

var _ Client = (*GroqClient)(nil)

// groqChatRequest is the request body for the chat completions API.
type groqChatRequest struct {
	Model          string              `json:"model"`
	Messages       []groqMessage       `json:"messages"`
	ResponseFormat *groqResponseFormat `json:"response_format,omitempty"`
	Temperature    float32             `json:"temperature"`
}

// groqMessage is a single message in the chat conversation.
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// groqResponseFormat constrains the reply to a JSON object.
type groqResponseFormat struct {
	Type string `json:"type"`
}

// groqChatResponse is the response body from the chat completions API.
type groqChatResponse struct {
	Choices []groqChoice `json:"choices"`
}

// groqChoice is a single completion choice.
type groqChoice struct {
	Message groqMessage `json:"message"`
}

// NewGroqClient creates a Groq client for the given model configuration.
// A missing API key is a construction-time ConfigurationError.
func NewGroqClient(cfg ModelConfig, apiKey string) (*GroqClient, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Setting: "GROQ_API_KEY", Message: "API key is required"}
	}

	return &GroqClient{
		apiKey: apiKey,
		cfg:    cfg,
	}, nil
}

// GenerateJSON sends the instruction as the system message and the content as
// the user message, with response_format pinned to json_object.
func (c *GroqClient) GenerateJSON(ctx context.Context, instruction, content string) (string, error) {
	reqBody := groqChatRequest{
		Model: c.cfg.Model,
		Messages: []groqMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: content},
		},
		ResponseFormat: &groqResponseFormat{Type: "json_object"},
		Temperature:    c.cfg.Temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, groqAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := c.client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Groq API returned %d: %s", resp.StatusCode, string(body))
	}

	var chatResp groqChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return CleanJSONBlock(chatResp.Choices[0].Message.Content), nil
}

// ModelName returns the provider-side model identifier.
func (c *GroqClient) ModelName() string {
	return c.cfg.Model
}

// Close releases resources held by the client. The HTTP client needs no
// explicit teardown.
func (c *GroqClient) Close() error {
	return nil
}
