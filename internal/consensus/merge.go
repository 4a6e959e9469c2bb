// Package consensus merges proposer candidates with verifier judgments into
// the final validated parameter set.
package consensus

import (
	"math"

	"github.com/jonathan/riscv-consensus/internal/types"
)

// Defaults applied to judgments that omit optional fields. Strict wire mode
// rejects such judgments before they ever reach the merger, so these only
// take effect in lenient mode.
const (
	defaultConfidence = 0.8
	defaultName       = "Unknown"
)

// identity is the reconciliation key matching judgments back to candidates.
type identity struct {
	name    string
	excerpt string
}

// Merge combines proposed candidates with the verifier's outcome into a
// consensus result. Judgments are the authoritative set: each judgment
// marked valid becomes a validated parameter (in judgment order), each
// invalid one increments the rejection count and is dropped without a
// tombstone. Candidates the verifier never judged — matched by name plus
// excerpt — are reported in Unjudged instead of silently vanishing from the
// counts.
//
// Merge is a pure function: no I/O, deterministic for a given input pair.
func Merge(candidates []types.Candidate, outcome *types.VerificationOutcome) *types.ConsensusResult {
	validated := make([]types.ValidatedParameter, 0, len(outcome.Judgments))
	rejected := 0
	totalConfidence := 0.0

	judged := make(map[identity]int, len(outcome.Judgments))
	for _, judgment := range outcome.Judgments {
		judged[identity{judgment.Name, judgment.Excerpt}]++

		if judgment.IsValid != nil && !*judgment.IsValid {
			rejected++
			continue
		}

		confidence := defaultConfidence
		if judgment.Confidence != nil {
			confidence = *judgment.Confidence
		}
		totalConfidence += confidence

		name := judgment.Name
		if name == "" {
			name = defaultName
		}
		category := judgment.Category
		if category == "" {
			category = judgment.OriginalCategory
		}
		if category == "" {
			category = types.CategoryUnknown
		}

		validated = append(validated, types.ValidatedParameter{
			Name:              name,
			Excerpt:           judgment.Excerpt,
			Category:          category,
			Confidence:        confidence,
			VerificationNotes: judgment.VerificationNotes,
		})
	}

	var unjudged []types.Candidate
	for _, candidate := range candidates {
		key := identity{candidate.Name, candidate.Excerpt}
		if judged[key] > 0 {
			judged[key]--
			continue
		}
		unjudged = append(unjudged, candidate)
	}

	confidenceAvg := 0.0
	if len(validated) > 0 {
		confidenceAvg = round3(totalConfidence / float64(len(validated)))
	}

	return &types.ConsensusResult{
		Strategy:            types.StrategyDual,
		ModelA:              types.ProposerName,
		ModelB:              types.VerifierName,
		OriginalCount:       len(candidates),
		ValidatedCount:      len(validated),
		RejectedCount:       rejected,
		UnjudgedCount:       len(unjudged),
		ConfidenceAvg:       confidenceAvg,
		Data:                validated,
		Unjudged:            unjudged,
		VerificationSummary: outcome.Summary,
	}
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
