// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/riscv-consensus/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// PrintCandidates outputs a human-readable summary of the proposed parameters.
func (p *Printer) PrintCandidates(candidates []types.Candidate) {
	if len(candidates) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Proposed %d parameters:\n\n", len(candidates)))

	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := candidates[i]
		sb.WriteString(fmt.Sprintf("• %s", truncate(c.Name, 40)))
		if c.Category != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", c.Category))
		}
		sb.WriteString("\n")
		if c.Excerpt != "" {
			sb.WriteString(fmt.Sprintf("  %q\n", truncate(c.Excerpt, 45)))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more parameters", len(candidates)-maxItemsToShow))
	}

	p.printBox("PROPOSED PARAMETERS", sb.String())
}

// PrintVerification outputs the verifier's judgments with validity indicators.
func (p *Printer) PrintVerification(outcome *types.VerificationOutcome) {
	if outcome == nil || len(outcome.Judgments) == 0 {
		return
	}

	var sb strings.Builder
	if s := outcome.Summary; s != nil {
		sb.WriteString(fmt.Sprintf("Proposed: %d  Validated: %d  Rejected: %d\n\n",
			s.TotalProposed, s.Validated, s.Rejected))
	} else {
		sb.WriteString(fmt.Sprintf("Judged %d parameters:\n\n", len(outcome.Judgments)))
	}

	count := min(len(outcome.Judgments), maxItemsToShow)
	for i := 0; i < count; i++ {
		j := outcome.Judgments[i]
		mark := "?"
		switch {
		case j.IsValid == nil:
		case *j.IsValid:
			mark = "✓"
		default:
			mark = "✗"
		}
		sb.WriteString(fmt.Sprintf("%s %s", mark, truncate(j.Name, 40)))
		if j.Confidence != nil {
			sb.WriteString(fmt.Sprintf(" (%.2f)", *j.Confidence))
		}
		sb.WriteString("\n")
		if j.RejectionReason != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", truncate(j.RejectionReason, 45)))
		}
	}

	if len(outcome.Judgments) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more judgments", len(outcome.Judgments)-maxItemsToShow))
	}

	p.printBox("VERIFICATION JUDGMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutcome outputs the pipeline result in the shape appropriate to how the
// run ended.
func (p *Printer) PrintOutcome(outcome types.Outcome) {
	switch r := outcome.(type) {
	case *types.ConsensusResult:
		p.printConsensus(r)
	case *types.EmptyResult:
		p.printEmpty(r)
	case *types.UnverifiedResult:
		p.printUnverified(r)
	case *types.ErrorResult:
		p.printError(r)
	case *types.ChunkedResult:
		p.printChunked(r)
	}
}

func (p *Printer) printConsensus(r *types.ConsensusResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Strategy: %s\n", r.Strategy))
	sb.WriteString(fmt.Sprintf("Proposed: %d  Validated: %d  Rejected: %d\n",
		r.OriginalCount, r.ValidatedCount, r.RejectedCount))
	if r.UnjudgedCount > 0 {
		sb.WriteString(fmt.Sprintf("Unjudged: %d\n", r.UnjudgedCount))
	}
	sb.WriteString(fmt.Sprintf("Avg confidence: %.3f\n", r.ConfidenceAvg))

	if len(r.Data) > 0 {
		sb.WriteString("\n")
		count := min(len(r.Data), maxItemsToShow)
		for i := 0; i < count; i++ {
			param := r.Data[i]
			sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, truncate(param.Name, 40)))
			sb.WriteString(fmt.Sprintf("    %s  %.2f\n", param.Category, param.Confidence))
		}
		if len(r.Data) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("\n... and %d more parameters", len(r.Data)-maxItemsToShow))
		}
	}

	p.printBox("CONSENSUS RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printEmpty(_ *types.EmptyResult) {
	fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO PARAMETERS FOUND")
	fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
}

func (p *Printer) printUnverified(r *types.UnverifiedResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠ %s\n\n", truncate(r.Warning, 52)))
	sb.WriteString(fmt.Sprintf("Returning %d unverified parameters:\n", r.OriginalCount))

	count := min(len(r.Data), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("• %s\n", truncate(r.Data[i].Name, 45)))
	}
	if len(r.Data) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more parameters\n", len(r.Data)-maxItemsToShow))
	}

	p.printBox("DEGRADED RESULT (UNVERIFIED)", strings.TrimSuffix(sb.String(), "\n"))
}

func (p *Printer) printError(r *types.ErrorResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Phase: %s\n", r.Phase))
	sb.WriteString(r.Error)

	p.printBox("PIPELINE FAILED", sb.String())
}

func (p *Printer) printChunked(r *types.ChunkedResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Chunks processed: %d", r.ChunksProcessed))
	if r.ChunksFailed > 0 {
		sb.WriteString(fmt.Sprintf("  (failed: %d)", r.ChunksFailed))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Proposed: %d  Validated: %d  Rejected: %d\n",
		r.OriginalCount, r.ValidatedCount, r.RejectedCount))
	if len(r.Unverified) > 0 {
		sb.WriteString(fmt.Sprintf("Unverified: %d\n", len(r.Unverified)))
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("\n")
		count := min(len(r.Warnings), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("⚠ %s\n", truncate(r.Warnings[i], 50)))
		}
		if len(r.Warnings) > 3 {
			sb.WriteString(fmt.Sprintf("... and %d more warnings\n", len(r.Warnings)-3))
		}
	}

	p.printBox("CHUNKED CONSENSUS RESULT", strings.TrimSuffix(sb.String(), "\n"))
}
