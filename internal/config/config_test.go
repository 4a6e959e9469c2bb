package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/riscv-consensus/internal/llm"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("CONSENSUS_MODE", "strict")
	t.Setenv("DATABASE_URL", "postgres://localhost/consensus")
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_CHUNK_SIZE", "4000")
	t.Setenv("CHUNK_WORKERS", "4")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() returned error: %v", err)
	}

	if cfg.GeminiAPIKey != "gem-key" {
		t.Errorf("GeminiAPIKey = %q, want %q", cfg.GeminiAPIKey, "gem-key")
	}
	if cfg.GroqAPIKey != "groq-key" {
		t.Errorf("GroqAPIKey = %q, want %q", cfg.GroqAPIKey, "groq-key")
	}
	if cfg.Mode != ModeStrict {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeStrict)
	}
	if !cfg.Strict() {
		t.Error("Strict() = false, want true")
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.MaxChunkSize != 4000 {
		t.Errorf("MaxChunkSize = %d, want 4000", cfg.MaxChunkSize)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.Environment != "production" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "production")
	}
}

func TestFromEnvMalformedInt(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("FromEnv() should fail on a malformed PORT")
	}
	if !llm.IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "zero config is valid", cfg: Config{}},
		{name: "lenient mode", cfg: Config{Mode: ModeLenient}},
		{name: "strict mode", cfg: Config{Mode: ModeStrict}},
		{name: "unknown mode", cfg: Config{Mode: "paranoid"}, wantErr: true},
		{name: "port in range", cfg: Config{Port: 8000}},
		{name: "port out of range", cfg: Config{Port: 70000}, wantErr: true},
		{name: "chunk size too small", cfg: Config{MaxChunkSize: 50}, wantErr: true},
		{name: "chunk size ok", cfg: Config{MaxChunkSize: 6000}},
		{name: "workers out of range", cfg: Config{Workers: 32}, wantErr: true},
		{name: "workers ok", cfg: Config{Workers: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !llm.IsConfigurationError(err) {
				t.Errorf("Validate() should return a configuration error, got %v", err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	cfg := Config{GeminiAPIKey: "from-env", Port: 9000}
	defaults := Config{
		GeminiAPIKey: "from-file",
		GroqAPIKey:   "file-groq",
		Mode:         ModeStrict,
		Port:         8000,
		Workers:      4,
	}

	merged := cfg.Merge(defaults)

	if merged.GeminiAPIKey != "from-env" {
		t.Errorf("GeminiAPIKey = %q, env value should win", merged.GeminiAPIKey)
	}
	if merged.GroqAPIKey != "file-groq" {
		t.Errorf("GroqAPIKey = %q, want file value", merged.GroqAPIKey)
	}
	if merged.Mode != ModeStrict {
		t.Errorf("Mode = %q, want file value", merged.Mode)
	}
	if merged.Port != 9000 {
		t.Errorf("Port = %d, env value should win", merged.Port)
	}
	if merged.Workers != 4 {
		t.Errorf("Workers = %d, want file value", merged.Workers)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "consensus.json")
	content := `{"groq_api_key": "file-key", "mode": "strict", "max_chunk_size": 5000}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() returned error: %v", err)
	}
	if cfg.GroqAPIKey != "file-key" {
		t.Errorf("GroqAPIKey = %q, want %q", cfg.GroqAPIKey, "file-key")
	}
	if cfg.Mode != ModeStrict {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeStrict)
	}
	if cfg.MaxChunkSize != 5000 {
		t.Errorf("MaxChunkSize = %d, want 5000", cfg.MaxChunkSize)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(""); err == nil {
		t.Error("LoadFile(\"\") should fail")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadFile with a missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile with malformed JSON should fail")
	}
}

func TestPortOrDefault(t *testing.T) {
	if got := (&Config{}).PortOrDefault(); got != DefaultPort {
		t.Errorf("PortOrDefault() = %d, want %d", got, DefaultPort)
	}
	if got := (&Config{Port: 3000}).PortOrDefault(); got != 3000 {
		t.Errorf("PortOrDefault() = %d, want 3000", got)
	}
}

func TestModeOrDefault(t *testing.T) {
	if got := (&Config{}).ModeOrDefault(); got != ModeLenient {
		t.Errorf("ModeOrDefault() = %q, want %q", got, ModeLenient)
	}
	if got := (&Config{Mode: ModeStrict}).ModeOrDefault(); got != ModeStrict {
		t.Errorf("ModeOrDefault() = %q, want %q", got, ModeStrict)
	}
}

func TestEnvironmentOrDefault(t *testing.T) {
	if got := (&Config{}).EnvironmentOrDefault(); got != "development" {
		t.Errorf("EnvironmentOrDefault() = %q, want %q", got, "development")
	}
	if got := (&Config{Environment: "production"}).EnvironmentOrDefault(); got != "production" {
		t.Errorf("EnvironmentOrDefault() = %q, want %q", got, "production")
	}
}

func TestModelOverrides(t *testing.T) {
	cfg := &Config{ProposerModel: "gemini-2.0-flash", VerifierModel: "llama-3.3-70b-versatile"}

	if got := cfg.ProposerConfig().Model; got != "gemini-2.0-flash" {
		t.Errorf("ProposerConfig().Model = %q, want override", got)
	}
	if got := cfg.VerifierConfig().Model; got != "llama-3.3-70b-versatile" {
		t.Errorf("VerifierConfig().Model = %q, want override", got)
	}

	defaults := &Config{}
	if got := defaults.ProposerConfig().Model; got != "gemini-flash-latest" {
		t.Errorf("default proposer model = %q", got)
	}
	if got := defaults.VerifierConfig().Model; got != "llama-3.1-8b-instant" {
		t.Errorf("default verifier model = %q", got)
	}
}
