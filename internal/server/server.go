// Package server provides the HTTP REST API for the consensus engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/riscv-consensus/internal/config"
	"github.com/jonathan/riscv-consensus/internal/extraction"
	"github.com/jonathan/riscv-consensus/internal/llm"
	"github.com/jonathan/riscv-consensus/internal/logging"
	"github.com/jonathan/riscv-consensus/internal/pipeline"
	"github.com/jonathan/riscv-consensus/internal/server/ratelimit"
	"github.com/jonathan/riscv-consensus/internal/store"
	"github.com/jonathan/riscv-consensus/internal/verification"
)

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	cfg            *config.Config
	engine         *pipeline.Engine // nil while a provider key is missing
	engineErr      error            // why the engine is unavailable
	proposerClient llm.Client
	verifierClient llm.Client
	store          *store.Store // nil when DATABASE_URL is not configured
	rateLimiter    *ratelimit.Limiter
	logger         zerolog.Logger
}

// New creates a new server instance. Missing provider keys leave the engine
// unbuilt and the API degraded instead of failing startup; a configured
// DATABASE_URL that cannot be reached is an error.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: *logging.Default(),
	}

	s.buildEngine(ctx)

	if cfg.DatabaseURL != "" {
		st, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.store = st
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.PortOrDefault()),
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // chunked runs make many sequential LLM calls
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// buildEngine constructs the two provider clients and the pipeline. On
// failure it records the reason so handlers can answer 503 with it.
func (s *Server) buildEngine(ctx context.Context) {
	proposerClient, err := llm.NewGeminiClient(ctx, s.cfg.ProposerConfig(), s.cfg.GeminiAPIKey)
	if err != nil {
		s.engineErr = err
		s.logger.Warn().Err(err).Msg("proposer client unavailable, serving degraded")
		return
	}

	verifierClient, err := llm.NewGroqClient(s.cfg.VerifierConfig(), s.cfg.GroqAPIKey)
	if err != nil {
		s.engineErr = err
		_ = proposerClient.Close()
		s.logger.Warn().Err(err).Msg("verifier client unavailable, serving degraded")
		return
	}

	s.proposerClient = proposerClient
	s.verifierClient = verifierClient
	s.engine = pipeline.New(
		extraction.NewProposer(proposerClient, s.cfg.Strict()),
		verification.NewVerifier(verifierClient, s.cfg.Strict()),
		s.logger,
	)
}

// routes builds the request router with the middleware stack applied.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("POST /api/extract-chunked", s.handleExtractChunked)
	mux.HandleFunc("POST /api/ingest", s.handleIngest)

	// Run history (active only when a store is configured)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /api/runs/{id}", s.handleDeleteRun)

	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-stop
	s.logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.proposerClient != nil {
		_ = s.proposerClient.Close()
	}
	if s.verifierClient != nil {
		_ = s.verifierClient.Close()
	}
	if s.store != nil {
		s.store.Close()
	}

	s.logger.Info().Msg("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging attaches a request-scoped logger (with request ID) to the
// context and logs request start and completion.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		ctx := logging.WithLogger(r.Context(), &s.logger)
		ctx = logging.WithRequestID(ctx, requestID)
		logger := logging.FromContext(ctx)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Msg("request started")

		next.ServeHTTP(w, r.WithContext(ctx))

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleHealth reports whether both provider keys are configured. The
// service stays up without them, so a missing key is "degraded" rather
// than down.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	proposer := s.cfg.ProposerConfig()
	verifier := s.cfg.VerifierConfig()
	geminiConfigured := s.cfg.GeminiAPIKey != ""
	groqConfigured := s.cfg.GroqAPIKey != ""

	status := "online"
	if !geminiConfigured || !groqConfigured {
		status = "degraded"
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": status,
		"system": "Dual-LLM Consensus Engine",
		"models": map[string]any{
			"proposer": map[string]any{
				"name":       proposer.DisplayName,
				"provider":   proposer.Provider,
				"configured": geminiConfigured,
			},
			"verifier": map[string]any{
				"name":       verifier.DisplayName,
				"provider":   verifier.Provider,
				"configured": groqConfigured,
			},
		},
		"environment": s.cfg.EnvironmentOrDefault(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request. This
// uses the IP address from RemoteAddr; X-Forwarded-For is deliberately not
// trusted here.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit
// information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	s.logger.Warn().
		Int("limit", info.Limit).
		Int("remaining", info.Remaining).
		Time("reset", info.ResetTime).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
