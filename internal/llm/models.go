package llm

import (
	"github.com/jonathan/riscv-consensus/internal/types"
)

// Role identifies which pipeline stage a model serves.
type Role string

// Model roles in the proposer-verifier architecture.
const (
	RoleProposer Role = "Proposer"
	RoleVerifier Role = "Verifier"
)

// ModelConfig describes one model role: the provider-side model identifier,
// the display name reported in results, and the sampling temperature.
type ModelConfig struct {
	Role        Role
	Model       string
	DisplayName string
	Provider    string
	Temperature float32
}

// DefaultProposerConfig returns the extraction-stage model configuration.
// Gemini's large context window suits high-recall extraction; the low
// temperature favors determinism over creativity.
func DefaultProposerConfig() ModelConfig {
	return ModelConfig{
		Role:        RoleProposer,
		Model:       "gemini-flash-latest",
		DisplayName: types.ProposerName,
		Provider:    "Google",
		Temperature: 0.2,
	}
}

// DefaultVerifierConfig returns the validation-stage model configuration. A
// different model family gives an independent bias; the temperature sits below
// the proposer's so judgments stay strict and reproducible.
func DefaultVerifierConfig() ModelConfig {
	return ModelConfig{
		Role:        RoleVerifier,
		Model:       "llama-3.1-8b-instant",
		DisplayName: types.VerifierName,
		Provider:    "Groq",
		Temperature: 0.1,
	}
}
