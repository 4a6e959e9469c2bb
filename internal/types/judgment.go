package types

// Judgment is the verifier's ruling on a single candidate. The verifier may
// correct the candidate's category; OriginalCategory preserves the proposer's
// claim for audit. IsValid and Confidence are pointers because their absence
// on the wire is meaningful: lenient decoding substitutes defaults, strict
// decoding treats a missing field as a malformed reply.
type Judgment struct {
	Name              string   `json:"name"`
	Excerpt           string   `json:"excerpt"`
	Category          Category `json:"category,omitempty"`
	OriginalCategory  Category `json:"original_category,omitempty"`
	IsValid           *bool    `json:"is_valid,omitempty"`
	Confidence        *float64 `json:"confidence,omitempty"`
	RejectionReason   string   `json:"rejection_reason,omitempty"`
	VerificationNotes string   `json:"verification_notes,omitempty"`
}

// VerificationSummary is the verifier's self-reported tally. It is advisory
// metadata passed through verbatim, never recomputed against the judgments.
type VerificationSummary struct {
	TotalProposed       int `json:"total_proposed"`
	Validated           int `json:"validated"`
	Rejected            int `json:"rejected"`
	CategoryCorrections int `json:"category_corrections"`
}

// VerificationOutcome bundles the verifier's judgments with its optional summary.
// This is the sole handoff artifact between the verification and merge phases.
type VerificationOutcome struct {
	Judgments []Judgment           `json:"results"`
	Summary   *VerificationSummary `json:"summary,omitempty"`
}
