package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/riscv-consensus/internal/config"
	"github.com/jonathan/riscv-consensus/internal/llm"
	"github.com/jonathan/riscv-consensus/internal/logging"
	"github.com/jonathan/riscv-consensus/internal/pipeline"
	"github.com/jonathan/riscv-consensus/internal/server/ratelimit"
	"github.com/jonathan/riscv-consensus/internal/types"
)

// fakeProposer drives the pipeline stages from handler tests.
type fakeProposer struct {
	fn func(chunk string) ([]types.Candidate, error)
}

func (f *fakeProposer) Propose(_ context.Context, chunk string) ([]types.Candidate, error) {
	return f.fn(chunk)
}

type fakeVerifier struct {
	fn func(chunk string, candidates []types.Candidate) (*types.VerificationOutcome, error)
}

func (f *fakeVerifier) Verify(_ context.Context, chunk string, candidates []types.Candidate) (*types.VerificationOutcome, error) {
	return f.fn(chunk, candidates)
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

// newTestServer builds a Server around an optional fake engine, with rate
// limiting disabled and no store.
func newTestServer(engine *pipeline.Engine, engineErr error) *Server {
	cfg := &config.Config{GeminiAPIKey: "gemini-test", GroqAPIKey: "groq-test"}
	return &Server{
		cfg:         cfg,
		engine:      engine,
		engineErr:   engineErr,
		rateLimiter: ratelimit.NewLimiter(&ratelimit.Config{Enabled: false}),
		logger:      logging.Nop,
	}
}

func approvingEngine() *pipeline.Engine {
	proposer := &fakeProposer{fn: func(chunk string) ([]types.Candidate, error) {
		return []types.Candidate{{Name: "MXLEN", Excerpt: chunk, Category: types.CategoryConfigDependent}}, nil
	}}
	verifier := &fakeVerifier{fn: func(_ string, candidates []types.Candidate) (*types.VerificationOutcome, error) {
		judgments := make([]types.Judgment, 0, len(candidates))
		for _, c := range candidates {
			judgments = append(judgments, types.Judgment{
				Name:       c.Name,
				Excerpt:    c.Excerpt,
				Category:   c.Category,
				IsValid:    boolPtr(true),
				Confidence: floatPtr(0.9),
			})
		}
		return &types.VerificationOutcome{Judgments: judgments}, nil
	}}
	return pipeline.New(proposer, verifier, logging.Nop)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func TestHandleRoot(t *testing.T) {
	s := newTestServer(approvingEngine(), nil)
	rec := doJSON(t, s.routes(), http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Dual-LLM Consensus Engine", body["system"])
	assert.NotEmpty(t, body["endpoints"])
}

func TestHandleHealth(t *testing.T) {
	t.Run("online when both keys configured", func(t *testing.T) {
		s := newTestServer(approvingEngine(), nil)
		rec := doJSON(t, s.routes(), http.MethodGet, "/api/health", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "online", decodeBody(t, rec)["status"])
	})

	t.Run("degraded when a key is missing", func(t *testing.T) {
		s := newTestServer(nil, &llm.ConfigurationError{Setting: "GROQ_API_KEY", Message: "API key is required"})
		s.cfg.GroqAPIKey = ""
		rec := doJSON(t, s.routes(), http.MethodGet, "/api/health", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "degraded", body["status"])

		models := body["models"].(map[string]any)
		verifier := models["verifier"].(map[string]any)
		assert.Equal(t, false, verifier["configured"])
	})
}

func TestHandleModels(t *testing.T) {
	s := newTestServer(approvingEngine(), nil)
	rec := doJSON(t, s.routes(), http.MethodGet, "/api/models", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, types.StrategyDual, body["strategy"])

	models := body["models"].([]any)
	require.Len(t, models, 2)
	first := models[0].(map[string]any)
	assert.Equal(t, "Proposer", first["role"])
}

func TestHandleExtract(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestServer(approvingEngine(), nil)
		rec := doJSON(t, s.routes(), http.MethodPost, "/api/extract", types.ExtractRequest{
			Text: "MXLEN may be 32 or 64 depending on the base ISA.",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, types.StrategyDual, body["strategy"])
		assert.Equal(t, float64(1), body["original_count"])
		assert.Equal(t, float64(1), body["validated_count"])
		assert.NotContains(t, body, "error")
		assert.NotContains(t, body, "warning")
	})

	t.Run("rejects short text", func(t *testing.T) {
		s := newTestServer(approvingEngine(), nil)
		rec := doJSON(t, s.routes(), http.MethodPost, "/api/extract", types.ExtractRequest{Text: "short"})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "Text")
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		s := newTestServer(approvingEngine(), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		s.routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("503 when the engine is unavailable", func(t *testing.T) {
		s := newTestServer(nil, &llm.ConfigurationError{Setting: "GEMINI_API_KEY", Message: "API key is required"})
		rec := doJSON(t, s.routes(), http.MethodPost, "/api/extract", types.ExtractRequest{
			Text: "MXLEN may be 32 or 64 depending on the base ISA.",
		})

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "GEMINI_API_KEY")
	})

	t.Run("extraction failure maps to 500 with phase", func(t *testing.T) {
		proposer := &fakeProposer{fn: func(string) ([]types.Candidate, error) {
			return nil, &llm.ParseError{Provider: "Gemini", Cause: errors.New("bad reply")}
		}}
		verifier := &fakeVerifier{fn: func(string, []types.Candidate) (*types.VerificationOutcome, error) {
			t.Fatal("verifier must not run after extraction failure")
			return nil, nil
		}}
		s := newTestServer(pipeline.New(proposer, verifier, logging.Nop), nil)

		rec := doJSON(t, s.routes(), http.MethodPost, "/api/extract", types.ExtractRequest{
			Text: "MXLEN may be 32 or 64 depending on the base ISA.",
		})

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "extraction", body["phase"])
		assert.Contains(t, body["error"], "JSON parse error")
	})

	t.Run("degraded verification stays 200 with warning", func(t *testing.T) {
		proposer := &fakeProposer{fn: func(chunk string) ([]types.Candidate, error) {
			return []types.Candidate{{Name: "misa", Excerpt: chunk}}, nil
		}}
		verifier := &fakeVerifier{fn: func(string, []types.Candidate) (*types.VerificationOutcome, error) {
			return nil, &llm.ProviderError{Provider: "Llama", Op: "verification", Cause: errors.New("quota")}
		}}
		s := newTestServer(pipeline.New(proposer, verifier, logging.Nop), nil)

		rec := doJSON(t, s.routes(), http.MethodPost, "/api/extract", types.ExtractRequest{
			Text: "The misa CSR reports the supported extensions.",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Contains(t, body["strategy"], "unverified")
		assert.Contains(t, body["warning"], "Verification phase failed")
		assert.NotContains(t, body, "validated_count")
	})
}

func TestHandleExtractChunked(t *testing.T) {
	s := newTestServer(approvingEngine(), nil)
	text := strings.Repeat("MXLEN may be 32 or 64. ", 3) + "\n\n" + strings.Repeat("The misa CSR is warl. ", 3)

	rec := doJSON(t, s.routes(), http.MethodPost, "/api/extract-chunked", types.ExtractRequest{
		Text:         text,
		MaxChunkSize: 100,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, types.StrategyChunked, body["strategy"])
	assert.Equal(t, float64(2), body["chunks_processed"])
	assert.Equal(t, float64(2), body["validated_count"])
}

func TestHandleIngest(t *testing.T) {
	page := `<html><head><title>RISC-V Privileged Spec</title></head><body>
		<nav>skip me</nav>
		<main>
			<p>The misa CSR reports the ISA supported by the hart.</p>
			<p>MXLEN may be 32 or 64 depending on the base ISA.</p>
		</main></body></html>`
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page)
	}))
	defer origin.Close()

	s := newTestServer(approvingEngine(), nil)
	rec := doJSON(t, s.routes(), http.MethodPost, "/api/ingest", types.IngestRequest{URL: origin.URL})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, origin.URL, body["source_url"])
	assert.Equal(t, "RISC-V Privileged Spec", body["source_title"])

	result := body["result"].(map[string]any)
	assert.Equal(t, types.StrategyChunked, result["strategy"])

	t.Run("unreachable source maps to 502", func(t *testing.T) {
		rec := doJSON(t, s.routes(), http.MethodPost, "/api/ingest", types.IngestRequest{
			URL: "http://127.0.0.1:1/nothing",
		})
		require.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("invalid URL maps to 400", func(t *testing.T) {
		rec := doJSON(t, s.routes(), http.MethodPost, "/api/ingest", types.IngestRequest{URL: "not a url"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRunEndpointsWithoutStore(t *testing.T) {
	s := newTestServer(approvingEngine(), nil)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/runs"},
		{http.MethodGet, "/api/runs/" + "00000000-0000-0000-0000-000000000000"},
		{http.MethodDelete, "/api/runs/" + "00000000-0000-0000-0000-000000000000"},
	} {
		rec := doJSON(t, s.routes(), tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(approvingEngine(), nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/extract", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
