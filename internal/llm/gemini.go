package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini, the proposer-stage provider.
type GeminiClient struct {
	client *genai.Client
	cfg    ModelConfig
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client for the given model configuration.
// A missing API key is a construction-time ConfigurationError.
func NewGeminiClient(ctx context.Context, cfg ModelConfig, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Setting: "GEMINI_API_KEY", Message: "API key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		cfg:    cfg,
	}, nil
}

// GenerateJSON sends the instruction and content as separate parts and returns
// the fence-stripped reply text.
func (c *GeminiClient) GenerateJSON(ctx context.Context, instruction, content string) (string, error) {
	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(c.cfg.Temperature)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(instruction), genai.Text(content))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}

	return CleanJSONBlock(text), nil
}

// ModelName returns the provider-side model identifier.
func (c *GeminiClient) ModelName() string {
	return c.cfg.Model
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse joins the text parts of a Gemini reply.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
