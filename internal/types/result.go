package types

// Strategy labels identifying which pipeline path produced a result.
const (
	StrategyDual       = "Dual-LLM Consensus"
	StrategyChunked    = "Dual-LLM Consensus (Chunked)"
	StrategyUnverified = "Single-LLM (Gemini only - unverified)"
)

// Display names reported as model_a / model_b in result payloads.
const (
	ProposerName = "Gemini 1.5 Flash"
	VerifierName = "Llama 3 70B"
)

// Outcome is the caller-facing artifact of one pipeline run. Exactly one of the
// concrete result shapes below is produced per run; callers distinguish them by
// type in Go and by field presence on the wire (an "error" key signals failure,
// a "warning" key signals degraded mode).
type Outcome interface {
	outcome()
}

// ConsensusResult is the terminal artifact of a fully verified pipeline run.
// Data holds only judgments where is_valid was true, in judgment order. Never
// mutated after construction; a fresh one is built per run.
type ConsensusResult struct {
	Strategy            string               `json:"strategy"`
	ModelA              string               `json:"model_a"`
	ModelB              string               `json:"model_b"`
	OriginalCount       int                  `json:"original_count"`
	ValidatedCount      int                  `json:"validated_count"`
	RejectedCount       int                  `json:"rejected_count"`
	UnjudgedCount       int                  `json:"unjudged_count,omitempty"`
	ConfidenceAvg       float64              `json:"confidence_avg"`
	Data                []ValidatedParameter `json:"data"`
	Unjudged            []Candidate          `json:"unjudged,omitempty"`
	VerificationSummary *VerificationSummary `json:"verification_summary,omitempty"`
}

// EmptyResult is returned when extraction succeeds but proposes nothing; the
// verifier is never invoked.
type EmptyResult struct {
	Status        string               `json:"status"`
	Strategy      string               `json:"strategy"`
	ModelA        string               `json:"model_a"`
	OriginalCount int                  `json:"original_count"`
	Data          []ValidatedParameter `json:"data"`
}

// UnverifiedResult is the degraded-mode artifact: verification failed, so the
// proposer's raw candidates are returned unfiltered with a warning. A deliberate
// precision/availability tradeoff, not a hidden error.
type UnverifiedResult struct {
	Warning       string      `json:"warning"`
	Strategy      string      `json:"strategy"`
	ModelA        string      `json:"model_a"`
	OriginalCount int         `json:"original_count"`
	Data          []Candidate `json:"data"`
}

// ErrorResult is the hard-failure artifact: the named phase failed and no data
// could be produced.
type ErrorResult struct {
	Error    string `json:"error"`
	Phase    string `json:"phase"`
	Strategy string `json:"strategy"`
}

// ChunkedResult aggregates per-chunk outcomes for the chunked entry point.
// Counts sum over chunks that did not fail extraction; failed chunks are
// reflected in ChunksFailed. Candidates from degraded (unverified) chunks are
// kept apart from validated data in Unverified.
type ChunkedResult struct {
	Strategy        string               `json:"strategy"`
	ModelA          string               `json:"model_a"`
	ModelB          string               `json:"model_b"`
	ChunksProcessed int                  `json:"chunks_processed"`
	ChunksFailed    int                  `json:"chunks_failed,omitempty"`
	OriginalCount   int                  `json:"original_count"`
	ValidatedCount  int                  `json:"validated_count"`
	RejectedCount   int                  `json:"rejected_count"`
	UnjudgedCount   int                  `json:"unjudged_count,omitempty"`
	Data            []ValidatedParameter `json:"data"`
	Unverified      []Candidate          `json:"unverified,omitempty"`
	Unjudged        []Candidate          `json:"unjudged,omitempty"`
	Warnings        []string             `json:"warnings,omitempty"`
}

func (*ConsensusResult) outcome()  {}
func (*EmptyResult) outcome()      {}
func (*UnverifiedResult) outcome() {}
func (*ErrorResult) outcome()      {}
func (*ChunkedResult) outcome()    {}

var (
	_ Outcome = (*ConsensusResult)(nil)
	_ Outcome = (*EmptyResult)(nil)
	_ Outcome = (*UnverifiedResult)(nil)
	_ Outcome = (*ErrorResult)(nil)
	_ Outcome = (*ChunkedResult)(nil)
)
