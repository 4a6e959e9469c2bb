package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/riscv-consensus/internal/ingest"
	"github.com/jonathan/riscv-consensus/internal/logging"
	"github.com/jonathan/riscv-consensus/internal/pipeline"
	"github.com/jonathan/riscv-consensus/internal/store"
	"github.com/jonathan/riscv-consensus/internal/types"
)

// serviceVersion is reported on the root and health endpoints.
const serviceVersion = "1.0.0"

// IngestResponse wraps a chunked pipeline result with the source document
// metadata for URL-based extraction.
type IngestResponse struct {
	SourceURL   string               `json:"source_url"`
	SourceTitle string               `json:"source_title,omitempty"`
	TextLength  int                  `json:"text_length"`
	Result      *types.ChunkedResult `json:"result"`
}

// RunDetailResponse is the response for GET /api/runs/{id}.
type RunDetailResponse struct {
	Run     *store.Run            `json:"run"`
	Results []store.ResultSummary `json:"results"`
	Outcome json.RawMessage       `json:"outcome,omitempty"`
}

// handleRoot returns service information.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"system":  "Dual-LLM Consensus Engine",
		"purpose": "Extracts architectural parameters from RISC-V specification text",
		"version": serviceVersion,
		"endpoints": []string{
			"GET /api/health",
			"GET /api/models",
			"POST /api/extract",
			"POST /api/extract-chunked",
			"POST /api/ingest",
			"GET /api/runs",
			"GET /api/runs/{id}",
			"DELETE /api/runs/{id}",
		},
	})
}

// handleModels returns static metadata for the two provider roles.
func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	proposer := s.cfg.ProposerConfig()
	verifier := s.cfg.VerifierConfig()

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"strategy": types.StrategyDual,
		"models": []map[string]any{
			{
				"role":        string(proposer.Role),
				"name":        proposer.DisplayName,
				"model":       proposer.Model,
				"provider":    proposer.Provider,
				"temperature": proposer.Temperature,
				"purpose":     "High-recall extraction of candidate parameters",
			},
			{
				"role":        string(verifier.Role),
				"name":        verifier.DisplayName,
				"model":       verifier.Model,
				"provider":    verifier.Provider,
				"temperature": verifier.Temperature,
				"purpose":     "High-precision verification of proposed candidates",
			},
		},
	})
}

// handleExtract runs the single-text pipeline.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}

	var req types.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.validationResponse(w, err)
		return
	}

	outcome := s.engine.Run(r.Context(), req.Text)
	s.recordRun(r, "", "", req.Text, outcome)
	s.jsonResponse(w, statusForOutcome(outcome), outcome)
}

// handleExtractChunked splits the text into segments and aggregates the
// per-chunk pipeline results.
func (s *Server) handleExtractChunked(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}

	var req types.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.validationResponse(w, err)
		return
	}

	result := s.engine.RunChunked(r.Context(), req.Text, s.chunkedOptions(req.MaxChunkSize, req.Workers))
	s.recordRun(r, "", "", req.Text, result)
	s.jsonResponse(w, http.StatusOK, result)
}

// handleIngest fetches a specification document by URL and runs the chunked
// pipeline on its text.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}

	var req types.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.validationResponse(w, err)
		return
	}

	doc, err := ingest.FromURL(r.Context(), req.URL, nil)
	if err != nil {
		logging.FromContext(r.Context()).Warn().Err(err).Str("url", req.URL).Msg("ingest failed")
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return
	}
	if len(doc.Text) < 10 {
		s.errorResponse(w, http.StatusUnprocessableEntity, "Document contains too little text to extract from")
		return
	}

	result := s.engine.RunChunked(r.Context(), doc.Text, s.chunkedOptions(req.MaxChunkSize, req.Workers))
	s.recordRun(r, req.URL, doc.Title, doc.Text, result)
	s.jsonResponse(w, http.StatusOK, &IngestResponse{
		SourceURL:   req.URL,
		SourceTitle: doc.Title,
		TextLength:  len(doc.Text),
		Result:      result,
	})
}

// handleListRuns lists persisted extraction runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	filters := store.RunFilters{
		Source: r.URL.Query().Get("source"),
		Status: r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit: "+raw)
			return
		}
		filters.Limit = limit
	}
	runs, err := s.store.ListRunsFiltered(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetRun returns one persisted run with its stored outcome.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID format")
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get run: "+err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}

	results, err := s.store.ListResults(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list results: "+err.Error())
		return
	}
	outcome, err := s.store.GetResult(r.Context(), runID, store.PhaseOutcome)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get outcome: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, &RunDetailResponse{
		Run:     run,
		Results: results,
		Outcome: outcome,
	})
}

// handleDeleteRun removes a persisted run and its results.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID format")
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get run: "+err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}
	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete run: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireEngine answers 503 and returns false when the pipeline is not
// available because a provider key is missing.
func (s *Server) requireEngine(w http.ResponseWriter) bool {
	if s.engine != nil {
		return true
	}
	message := "Pipeline unavailable: provider keys are not configured"
	if s.engineErr != nil {
		message = "Pipeline unavailable: " + s.engineErr.Error()
	}
	s.errorResponse(w, http.StatusServiceUnavailable, message)
	return false
}

// requireStore answers 404 and returns false when no run store is configured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store != nil {
		return true
	}
	s.errorResponse(w, http.StatusNotFound, "Run history is not available: no database configured")
	return false
}

// validationResponse maps request validation failures to 400 responses.
func (s *Server) validationResponse(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		s.errorResponse(w, http.StatusBadRequest,
			"Invalid request: field "+first.Field()+" failed on the '"+first.Tag()+"' rule")
		return
	}
	s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
}

// chunkedOptions resolves per-request overrides against configured defaults.
func (s *Server) chunkedOptions(maxChunkSize, workers int) pipeline.ChunkedOptions {
	if maxChunkSize <= 0 {
		maxChunkSize = s.cfg.MaxChunkSize
	}
	if workers <= 0 {
		workers = s.cfg.Workers
	}
	return pipeline.ChunkedOptions{MaxChunkSize: maxChunkSize, Workers: workers}
}

// statusForOutcome maps hard pipeline failure to 500; every other outcome
// shape, degraded mode included, is a well-formed 200 distinguished by field
// presence.
func statusForOutcome(outcome types.Outcome) int {
	if _, failed := outcome.(*types.ErrorResult); failed {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// recordRun persists the source text and outcome of a pipeline run when a
// store is configured. Recording is best-effort: a storage failure is logged
// and never fails the request.
func (s *Server) recordRun(r *http.Request, sourceURL, sourceTitle, text string, outcome types.Outcome) {
	if s.store == nil {
		return
	}
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	strategy, status := runLabels(outcome)
	runID, err := s.store.CreateRun(ctx, sourceURL, sourceTitle, strategy, s.cfg.ModeOrDefault())
	if err != nil {
		logger.Error().Err(err).Msg("failed to record run")
		return
	}
	if err := s.store.SaveText(ctx, runID, store.PhaseSourceText, text); err != nil {
		logger.Error().Err(err).Msg("failed to save source text")
	}
	if err := s.store.SaveResult(ctx, runID, store.PhaseOutcome, outcome); err != nil {
		logger.Error().Err(err).Msg("failed to save outcome")
	}
	if err := s.store.CompleteRun(ctx, runID, status); err != nil {
		logger.Error().Err(err).Msg("failed to complete run")
	}
}

// runLabels derives the stored strategy and status labels from an outcome.
func runLabels(outcome types.Outcome) (strategy, status string) {
	switch o := outcome.(type) {
	case *types.ConsensusResult:
		return o.Strategy, store.StatusCompleted
	case *types.EmptyResult:
		return o.Strategy, store.StatusEmpty
	case *types.UnverifiedResult:
		return o.Strategy, store.StatusDegraded
	case *types.ErrorResult:
		return o.Strategy, store.StatusFailed
	case *types.ChunkedResult:
		status = store.StatusCompleted
		if o.ChunksFailed > 0 || len(o.Unverified) > 0 {
			status = store.StatusDegraded
		}
		if o.ChunksFailed == o.ChunksProcessed && o.ChunksProcessed > 0 {
			status = store.StatusFailed
		}
		return o.Strategy, status
	default:
		return "", store.StatusCompleted
	}
}
