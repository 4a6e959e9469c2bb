// Package llm provides clients for the two LLM providers behind the consensus
// pipeline and the shared error taxonomy for their failures.
package llm

import (
	"context"
)

// Client is an abstraction over the LLM providers used by the pipeline stages.
type Client interface {
	// GenerateJSON sends an instruction plus content to the model, requesting a
	// JSON-formatted reply, and returns the reply text with any markdown code
	// fences stripped. It makes exactly one provider call; retry policy belongs
	// to callers (currently: none).
	GenerateJSON(ctx context.Context, instruction, content string) (string, error)
	// ModelName returns the provider-side model identifier.
	ModelName() string
	// Close releases any resources held by the client.
	Close() error
}
