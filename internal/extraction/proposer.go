// Package extraction implements the propose phase of the consensus pipeline:
// a high-recall pass that asks the proposer model to list every candidate
// parameter it can find in a chunk of specification text.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/riscv-consensus/internal/llm"
	"github.com/jonathan/riscv-consensus/internal/prompts"
	"github.com/jonathan/riscv-consensus/internal/schemas"
	"github.com/jonathan/riscv-consensus/internal/types"
)

// provider is the short role name used in error messages.
const provider = "Gemini"

// Proposer extracts candidate parameters from specification text through an
// llm.Client. It holds no per-request state and is safe for concurrent use.
type Proposer struct {
	client llm.Client
	strict bool
}

// NewProposer returns a Proposer backed by client. When strict is true the
// normalized provider reply is validated against the candidate wire schema
// before decoding, so malformed candidates fail the chunk instead of being
// silently defaulted downstream.
func NewProposer(client llm.Client, strict bool) *Proposer {
	return &Proposer{client: client, strict: strict}
}

// Propose sends chunk to the proposer model and returns the candidates it
// found. An unparsable reply yields a *llm.ParseError; any provider-side
// failure yields a *llm.ProviderError. Neither is retried here.
func (p *Proposer) Propose(ctx context.Context, chunk string) ([]types.Candidate, error) {
	content := prompts.Format(prompts.MustGet(prompts.ExtractionInput), map[string]string{
		"SourceText": chunk,
	})

	reply, err := p.client.GenerateJSON(ctx, prompts.MustGet(prompts.Extraction), content)
	if err != nil {
		return nil, &llm.ProviderError{Provider: provider, Op: "extraction", Cause: err}
	}

	candidates, err := p.decode(reply)
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (p *Proposer) decode(reply string) ([]types.Candidate, error) {
	normalized, err := normalizeCandidates(reply)
	if err != nil {
		return nil, &llm.ParseError{Provider: provider, Cause: err}
	}
	if p.strict {
		if err := schemas.Validate(schemas.Candidates, string(normalized)); err != nil {
			return nil, &llm.ParseError{Provider: provider, Cause: err}
		}
	}

	var candidates []types.Candidate
	if err := json.Unmarshal(normalized, &candidates); err != nil {
		return nil, &llm.ParseError{Provider: provider, Cause: err}
	}
	if candidates == nil {
		candidates = []types.Candidate{}
	}
	return candidates, nil
}

// normalizeCandidates reshapes a proposer reply into a flat JSON array. The
// accepted wire shapes are: a bare array of candidates, an object wrapping
// the array under a "parameters" key, and a single bare candidate object
// (returned as a one-element array). Anything else is an error.
func normalizeCandidates(reply string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty reply")
	}

	switch raw[0] {
	case '[':
		return raw, nil
	case '{':
		var wrapper struct {
			Parameters json.RawMessage `json:"parameters"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, err
		}
		if wrapper.Parameters == nil {
			// No parameters envelope: treat the object itself as a
			// single candidate.
			return json.RawMessage(append(append([]byte{'['}, raw...), ']')), nil
		}
		params := bytes.TrimSpace(wrapper.Parameters)
		if len(params) == 0 || params[0] != '[' {
			return nil, fmt.Errorf(`"parameters" is not an array`)
		}
		return params, nil
	default:
		return nil, fmt.Errorf("reply is neither a JSON array nor an object")
	}
}
