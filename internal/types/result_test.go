package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The three run outcomes are distinguished on the wire by field presence, so
// the marshaled shapes are part of the contract, not an implementation detail.

func TestErrorResult_WireShape(t *testing.T) {
	result := ErrorResult{
		Error:    "Gemini JSON parse error: unexpected end of JSON input",
		Phase:    "extraction",
		Strategy: StrategyDual,
	}

	jsonBytes, err := json.Marshal(&result)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(jsonBytes, &fields))
	assert.Len(t, fields, 3)
	assert.Equal(t, "extraction", fields["phase"])
	assert.Equal(t, "Dual-LLM Consensus", fields["strategy"])
	assert.Contains(t, fields["error"], "JSON parse error")
}

func TestEmptyResult_WireShape(t *testing.T) {
	result := EmptyResult{
		Status:        "No parameters found",
		Strategy:      StrategyDual,
		ModelA:        ProposerName,
		OriginalCount: 0,
		Data:          []ValidatedParameter{},
	}

	jsonBytes, err := json.Marshal(&result)
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"status":"No parameters found"`)
	assert.Contains(t, string(jsonBytes), `"original_count":0`)
	assert.Contains(t, string(jsonBytes), `"data":[]`)
	assert.NotContains(t, string(jsonBytes), `"error"`)
	assert.NotContains(t, string(jsonBytes), `"warning"`)
}

func TestUnverifiedResult_WireShape(t *testing.T) {
	result := UnverifiedResult{
		Warning:       "Verification phase failed: provider unavailable",
		Strategy:      StrategyUnverified,
		ModelA:        ProposerName,
		OriginalCount: 2,
		Data: []Candidate{
			{Name: "misa", Excerpt: "The misa CSR is a WARL read-write register", Category: CategoryNamed},
			{Name: "MXL", Excerpt: "The MXL field encodes the native base ISA width", Category: CategoryNamed},
		},
	}

	jsonBytes, err := json.Marshal(&result)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(jsonBytes, &fields))
	assert.Contains(t, fields, "warning")
	assert.NotContains(t, fields, "validated_count")
	assert.NotContains(t, fields, "error")
	assert.Equal(t, "Single-LLM (Gemini only - unverified)", fields["strategy"])
}

func TestConsensusResult_OmitsEmptyOptionals(t *testing.T) {
	result := ConsensusResult{
		Strategy:       StrategyDual,
		ModelA:         ProposerName,
		ModelB:         VerifierName,
		OriginalCount:  1,
		ValidatedCount: 1,
		ConfidenceAvg:  0.9,
		Data: []ValidatedParameter{
			{Name: "misa", Excerpt: "the misa CSR", Category: CategoryNamed, Confidence: 0.9},
		},
	}

	jsonBytes, err := json.Marshal(&result)
	require.NoError(t, err)
	assert.NotContains(t, string(jsonBytes), "unjudged")
	assert.NotContains(t, string(jsonBytes), "verification_summary")
	// rejected_count is part of the base shape even when zero.
	assert.Contains(t, string(jsonBytes), `"rejected_count":0`)
	// verification_notes stays present on data items even when empty.
	assert.Contains(t, string(jsonBytes), `"verification_notes":""`)
}

func TestJudgment_OptionalFieldAbsence(t *testing.T) {
	raw := `{"name":"misa","excerpt":"the misa CSR","category":"Named"}`

	var judgment Judgment
	require.NoError(t, json.Unmarshal([]byte(raw), &judgment))
	assert.Nil(t, judgment.IsValid)
	assert.Nil(t, judgment.Confidence)

	raw = `{"name":"misa","excerpt":"the misa CSR","is_valid":false,"confidence":0.4}`
	require.NoError(t, json.Unmarshal([]byte(raw), &judgment))
	require.NotNil(t, judgment.IsValid)
	require.NotNil(t, judgment.Confidence)
	assert.False(t, *judgment.IsValid)
	assert.InDelta(t, 0.4, *judgment.Confidence, 1e-9)
}

func TestExtractRequest_Validate(t *testing.T) {
	tooShort := ExtractRequest{Text: "misa"}
	assert.Error(t, tooShort.Validate())

	ok := ExtractRequest{Text: "The misa CSR is a WARL read-write register."}
	assert.NoError(t, ok.Validate())

	badWorkers := ExtractRequest{Text: "The misa CSR is a WARL read-write register.", Workers: 99}
	assert.Error(t, badWorkers.Validate())
}

func TestIngestRequest_Validate(t *testing.T) {
	bad := IngestRequest{URL: "not-a-url"}
	assert.Error(t, bad.Validate())

	ok := IngestRequest{URL: "https://example.com/spec.html"}
	assert.NoError(t, ok.Validate())
}
