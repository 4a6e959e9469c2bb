package store

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one recorded extraction run.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	SourceURL   string     `json:"source_url,omitempty"`
	SourceTitle string     `json:"source_title,omitempty"`
	Strategy    string     `json:"strategy"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Phase constants for known result types.
const (
	PhaseSourceText   = "source_text"
	PhaseCandidates   = "candidates"
	PhaseVerification = "verification"
	PhaseOutcome      = "outcome"
)

// Run status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusDegraded  = "degraded"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
)

// ResultSummary is a lightweight view of a stored result for listing.
type ResultSummary struct {
	Phase     string    `json:"phase"`
	HasJSON   bool      `json:"has_json"`
	HasText   bool      `json:"has_text"`
	CreatedAt time.Time `json:"created_at"`
}

// RunFilters holds optional filters for listing runs.
type RunFilters struct {
	Source string
	Status string
	Limit  int
}
