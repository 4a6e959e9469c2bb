// Package types provides type definitions for structured data used throughout the consensus engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Category classifies how an architectural parameter is expressed in specification text.
type Category string

// Parameter categories recognized by the extraction and verification prompts.
const (
	// CategoryNamed covers parameters with an explicit architectural name (CSR names, field names).
	CategoryNamed Category = "Named"
	// CategoryUnnamed covers constraints the text describes without naming (alignment rules, reserved behavior).
	CategoryUnnamed Category = "Unnamed"
	// CategoryConfigDependent covers values that vary with implementation configuration (XLEN-dependent widths).
	CategoryConfigDependent Category = "ConfigDependent"
	// CategoryNumeric covers concrete numeric specifications (sizes, counts, encodings).
	CategoryNumeric Category = "Numeric"
	// CategoryUnknown is the merge-time fallback when a judgment carries no usable category.
	CategoryUnknown Category = "Unknown"
)

// Candidate is a single parameter proposed by the extraction model, awaiting verification.
// Immutable once produced; the verifier and merger consume it as-is.
type Candidate struct {
	Name      string   `json:"name"`
	Excerpt   string   `json:"excerpt"`
	Category  Category `json:"category"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// ValidatedParameter is a candidate that survived verification, reshaped for the
// caller-facing result. Category prefers the verifier's correction over the
// proposer's original claim.
type ValidatedParameter struct {
	Name              string   `json:"name"`
	Excerpt           string   `json:"excerpt"`
	Category          Category `json:"category"`
	Confidence        float64  `json:"confidence"`
	VerificationNotes string   `json:"verification_notes"`
}
