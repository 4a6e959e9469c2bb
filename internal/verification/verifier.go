// Package verification implements the verify phase of the consensus
// pipeline: an independent model audits the proposer's candidates against
// the source chunk and judges each one.
package verification

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
const provider = "Llama"

// Verifier audits candidate parameters through an llm.Client. It holds no
// per-request state and is safe for concurrent use.
type Verifier struct {
	client llm.Client
	strict bool
}

// NewVerifier returns a Verifier backed by client. When strict is true the
// normalized reply is validated against the judgment wire schema, and every
// judgment must carry explicit is_valid and confidence fields; a judgment
// omitting either fails the verify call instead of being defaulted by the
// merger.
func NewVerifier(client llm.Client, strict bool) *Verifier {
	return &Verifier{client: client, strict: strict}
}

// Verify sends the source chunk and the proposed candidates to the verifier
// model and returns its judgments plus the optional summary tally. An
// unparsable reply yields a *llm.ParseError; provider-side failures yield a
// *llm.ProviderError. Neither is retried here.
func (v *Verifier) Verify(ctx context.Context, chunk string, candidates []types.Candidate) (*types.VerificationOutcome, error) {
	payload, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling candidates: %w", err)
	}

	content := prompts.Format(prompts.MustGet(prompts.VerificationInput), map[string]string{
		"SourceText": chunk,
		"Parameters": string(payload),
	})

	reply, err := v.client.GenerateJSON(ctx, prompts.MustGet(prompts.Verification), content)
	if err != nil {
		return nil, &llm.ProviderError{Provider: provider, Op: "verification", Cause: err}
	}

	outcome, err := v.decode(reply)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (v *Verifier) decode(reply string) (*types.VerificationOutcome, error) {
	normalized, err := normalizeOutcome(reply)
	if err != nil {
		return nil, &llm.ParseError{Provider: provider, Cause: err}
	}
	if v.strict {
		if err := schemas.Validate(schemas.Verification, string(normalized)); err != nil {
			return nil, &llm.ParseError{Provider: provider, Cause: err}
		}
	}

	var outcome types.VerificationOutcome
	if err := json.Unmarshal(normalized, &outcome); err != nil {
		return nil, &llm.ParseError{Provider: provider, Cause: err}
	}
	if outcome.Judgments == nil {
		outcome.Judgments = []types.Judgment{}
	}

	if v.strict {
		for i, judgment := range outcome.Judgments {
			if judgment.IsValid == nil {
				return nil, &llm.ParseError{
					Provider: provider,
					Cause:    fmt.Errorf("judgment %d (%q) is missing is_valid", i, judgment.Name),
				}
			}
			if judgment.Confidence == nil {
				return nil, &llm.ParseError{
					Provider: provider,
					Cause:    fmt.Errorf("judgment %d (%q) is missing confidence", i, judgment.Name),
				}
			}
		}
	}
	return &outcome, nil
}

// normalizeOutcome reshapes a verifier reply into the canonical judgment
// object. The accepted wire shapes are: an object carrying a "results" array
// plus an optional "summary", and a bare array of judgments (wrapped into
// the canonical object). Anything else is an error.
func normalizeOutcome(reply string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty reply")
	}

	switch raw[0] {
	case '{':
		return raw, nil
	case '[':
		wrapped := append([]byte(`{"results": `), raw...)
		return json.RawMessage(append(wrapped, '}')), nil
	default:
		return nil, fmt.Errorf("reply is neither a JSON object nor an array")
	}
}
