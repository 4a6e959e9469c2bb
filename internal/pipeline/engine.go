// Package pipeline orchestrates the consensus flow: propose candidates with
// one model, verify them with a second, and merge the two into a validated
// result. It owns the per-chunk state machine and all fallback behavior.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/riscv-consensus/internal/chunking"
	"github.com/jonathan/riscv-consensus/internal/consensus"
	"github.com/jonathan/riscv-consensus/internal/types"
)

// DefaultChunkSize is the per-segment budget for the chunked entry point. It
// is smaller than chunking.DefaultMaxSize because each segment is sent twice
// (once per model) alongside instruction text.
const DefaultChunkSize = 6000

// Proposer extracts candidate parameters from a chunk of specification text.
type Proposer interface {
	Propose(ctx context.Context, chunk string) ([]types.Candidate, error)
}

// Verifier audits proposed candidates against the source chunk.
type Verifier interface {
	Verify(ctx context.Context, chunk string, candidates []types.Candidate) (*types.VerificationOutcome, error)
}

// Engine runs the two-stage consensus pipeline. Both stages are injected so
// tests can substitute fakes without touching the environment; the Engine
// itself keeps no mutable state between runs and is safe for concurrent use.
type Engine struct {
	proposer Proposer
	verifier Verifier
	logger   zerolog.Logger
}

// New returns an Engine wired to the given stages.
func New(proposer Proposer, verifier Verifier, logger zerolog.Logger) *Engine {
	return &Engine{
		proposer: proposer,
		verifier: verifier,
		logger:   logger,
	}
}

// Run processes a single chunk of specification text through the full
// propose → verify → merge sequence and returns exactly one of the concrete
// outcome shapes:
//
//   - *types.ErrorResult when extraction fails (terminal; verification is
//     never attempted),
//   - *types.EmptyResult when extraction proposes nothing (the verifier is
//     skipped — there is nothing to audit),
//   - *types.UnverifiedResult when verification fails (degraded mode: the
//     raw candidates are returned with a warning instead of an error),
//   - *types.ConsensusResult when all stages succeed.
//
// No stage is retried; every provider failure is terminal for that call.
func (e *Engine) Run(ctx context.Context, text string) types.Outcome {
	candidates, err := e.proposer.Propose(ctx, text)
	if err != nil {
		e.logger.Error().Err(err).Msg("extraction failed")
		return &types.ErrorResult{
			Error:    err.Error(),
			Phase:    "extraction",
			Strategy: types.StrategyDual,
		}
	}

	if len(candidates) == 0 {
		e.logger.Info().Msg("extraction proposed no parameters")
		return &types.EmptyResult{
			Status:        "No parameters found",
			Strategy:      types.StrategyDual,
			ModelA:        types.ProposerName,
			OriginalCount: 0,
			Data:          []types.ValidatedParameter{},
		}
	}
	e.logger.Info().Int("candidates", len(candidates)).Msg("extraction complete")

	outcome, err := e.verifier.Verify(ctx, text, candidates)
	if err != nil {
		e.logger.Warn().Err(err).Msg("verification failed, degrading to unverified output")
		return &types.UnverifiedResult{
			Warning:       fmt.Sprintf("Verification phase failed: %s", err),
			Strategy:      types.StrategyUnverified,
			ModelA:        types.ProposerName,
			OriginalCount: len(candidates),
			Data:          candidates,
		}
	}
	e.logger.Info().Int("judgments", len(outcome.Judgments)).Msg("verification complete")

	result := consensus.Merge(candidates, outcome)
	e.logger.Info().
		Int("validated", result.ValidatedCount).
		Int("rejected", result.RejectedCount).
		Int("unjudged", result.UnjudgedCount).
		Msg("consensus merged")
	return result
}

// ChunkedOptions configure RunChunked.
type ChunkedOptions struct {
	// MaxChunkSize is the per-segment budget; DefaultChunkSize when <= 0.
	MaxChunkSize int
	// Workers bounds concurrent chunk pipelines. Values <= 1 process
	// chunks sequentially in source order.
	Workers int
}

// RunChunked splits text into segments and runs the pipeline independently
// on each (chunks are never cross-referenced), then aggregates the per-chunk
// outcomes. Validated data is concatenated in chunk order regardless of the
// worker count, and counts sum over chunks that did not fail extraction.
// Failed chunks are tallied in ChunksFailed and reported in Warnings rather
// than silently dropped; candidates from degraded chunks are carried in
// Unverified, apart from validated data.
func (e *Engine) RunChunked(ctx context.Context, text string, opts ChunkedOptions) *types.ChunkedResult {
	maxSize := opts.MaxChunkSize
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	chunks := chunking.Split(text, maxSize)
	e.logger.Info().
		Int("chunks", len(chunks)).
		Int("max_chunk_size", maxSize).
		Int("workers", opts.Workers).
		Msg("processing chunked document")

	outcomes := make([]types.Outcome, len(chunks))
	if opts.Workers > 1 {
		g := new(errgroup.Group)
		g.SetLimit(opts.Workers)
		for i, chunk := range chunks {
			g.Go(func() error {
				e.logger.Debug().Int("chunk", i+1).Int("of", len(chunks)).Msg("processing chunk")
				outcomes[i] = e.Run(ctx, chunk)
				return nil
			})
		}
		// Workers report failures as outcome values, never as errors.
		_ = g.Wait()
	} else {
		for i, chunk := range chunks {
			e.logger.Debug().Int("chunk", i+1).Int("of", len(chunks)).Msg("processing chunk")
			outcomes[i] = e.Run(ctx, chunk)
		}
	}

	return e.aggregate(len(chunks), outcomes)
}

func (e *Engine) aggregate(total int, outcomes []types.Outcome) *types.ChunkedResult {
	result := &types.ChunkedResult{
		Strategy:        types.StrategyChunked,
		ModelA:          types.ProposerName,
		ModelB:          types.VerifierName,
		ChunksProcessed: total,
		Data:            make([]types.ValidatedParameter, 0),
	}

	for i, outcome := range outcomes {
		switch o := outcome.(type) {
		case *types.ConsensusResult:
			result.OriginalCount += o.OriginalCount
			result.ValidatedCount += o.ValidatedCount
			result.RejectedCount += o.RejectedCount
			result.UnjudgedCount += o.UnjudgedCount
			result.Data = append(result.Data, o.Data...)
			result.Unjudged = append(result.Unjudged, o.Unjudged...)
		case *types.EmptyResult:
			// Nothing proposed, nothing to aggregate.
		case *types.UnverifiedResult:
			result.OriginalCount += o.OriginalCount
			result.Unverified = append(result.Unverified, o.Data...)
			result.Warnings = append(result.Warnings, fmt.Sprintf("chunk %d: %s", i+1, o.Warning))
		case *types.ErrorResult:
			result.ChunksFailed++
			result.Warnings = append(result.Warnings, fmt.Sprintf("chunk %d: %s", i+1, o.Error))
		}
	}
	return result
}
