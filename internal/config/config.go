// Package config provides configuration loading and validation for the
// consensus engine. Values come from the process environment (after any
// .env load in main) or an optional JSON file. Components receive their
// settings explicitly through constructors and never read the environment
// themselves.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jonathan/riscv-consensus/internal/llm"
)

// Wire modes controlling how provider replies are decoded.
const (
	// ModeLenient applies the documented defaults to absent judgment
	// fields: is_valid true, confidence 0.8.
	ModeLenient = "lenient"
	// ModeStrict validates provider replies against the wire schemas and
	// requires every judgment to carry explicit is_valid and confidence
	// fields.
	ModeStrict = "strict"
)

// DefaultPort is the HTTP listen port when none is configured.
const DefaultPort = 8080

// Config carries every tunable of the consensus engine. All fields are
// optional; zero values fall back to documented defaults, and the API keys
// are only required by the components that use them.
type Config struct {
	GeminiAPIKey  string `json:"gemini_api_key,omitempty"`
	GroqAPIKey    string `json:"groq_api_key,omitempty"`
	ProposerModel string `json:"proposer_model,omitempty"`
	VerifierModel string `json:"verifier_model,omitempty"`
	Mode          string `json:"mode,omitempty"`
	MaxChunkSize  int    `json:"max_chunk_size,omitempty"`
	Workers       int    `json:"workers,omitempty"`
	DatabaseURL   string `json:"database_url,omitempty"`
	Port          int    `json:"port,omitempty"`
	Environment   string `json:"environment,omitempty"`
}

// FromEnv builds a Config from the process environment. Unset variables
// leave their zero values in place; a variable that is set but malformed is
// a *llm.ConfigurationError.
func FromEnv() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:    os.Getenv("GROQ_API_KEY"),
		ProposerModel: os.Getenv("GEMINI_MODEL"),
		VerifierModel: os.Getenv("GROQ_MODEL"),
		Mode:          os.Getenv("CONSENSUS_MODE"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Environment:   os.Getenv("ENVIRONMENT"),
	}

	for _, v := range []struct {
		name   string
		target *int
	}{
		{"PORT", &cfg.Port},
		{"MAX_CHUNK_SIZE", &cfg.MaxChunkSize},
		{"CHUNK_WORKERS", &cfg.Workers},
	} {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &llm.ConfigurationError{
				Setting: v.name,
				Message: fmt.Sprintf("not a number: %q", raw),
			}
		}
		*v.target = value
	}

	return cfg, nil
}

// LoadFile loads a Config from a JSON file. The path is resolved against
// the current directory when relative.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Merge returns a copy of c with empty fields filled from defaults. Used to
// apply config-file values underneath environment settings.
func (c *Config) Merge(defaults Config) Config {
	result := *c

	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.GroqAPIKey == "" {
		result.GroqAPIKey = defaults.GroqAPIKey
	}
	if result.ProposerModel == "" {
		result.ProposerModel = defaults.ProposerModel
	}
	if result.VerifierModel == "" {
		result.VerifierModel = defaults.VerifierModel
	}
	if result.Mode == "" {
		result.Mode = defaults.Mode
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Environment == "" {
		result.Environment = defaults.Environment
	}
	if result.MaxChunkSize == 0 {
		result.MaxChunkSize = defaults.MaxChunkSize
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	return result
}

// Validate checks value ranges. It deliberately does not require the API
// keys: the server boots degraded without them, and the clients raise their
// own configuration errors at construction.
func (c *Config) Validate() error {
	switch c.Mode {
	case "", ModeLenient, ModeStrict:
	default:
		return &llm.ConfigurationError{
			Setting: "CONSENSUS_MODE",
			Message: fmt.Sprintf("must be %q or %q, got %q", ModeLenient, ModeStrict, c.Mode),
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return &llm.ConfigurationError{
			Setting: "PORT",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Port),
		}
	}
	if c.MaxChunkSize != 0 && c.MaxChunkSize < 100 {
		return &llm.ConfigurationError{
			Setting: "MAX_CHUNK_SIZE",
			Message: fmt.Sprintf("must be at least 100, got %d", c.MaxChunkSize),
		}
	}
	if c.Workers < 0 || c.Workers > 16 {
		return &llm.ConfigurationError{
			Setting: "CHUNK_WORKERS",
			Message: fmt.Sprintf("must be between 1 and 16, got %d", c.Workers),
		}
	}
	return nil
}

// Strict reports whether strict wire mode is enabled.
func (c *Config) Strict() bool {
	return c.Mode == ModeStrict
}

// ModeOrDefault returns the configured wire mode, or ModeLenient when unset.
func (c *Config) ModeOrDefault() string {
	if c.Mode == "" {
		return ModeLenient
	}
	return c.Mode
}

// PortOrDefault returns the configured port, or DefaultPort when unset.
func (c *Config) PortOrDefault() int {
	if c.Port == 0 {
		return DefaultPort
	}
	return c.Port
}

// EnvironmentOrDefault returns the configured environment name, or
// "development" when unset.
func (c *Config) EnvironmentOrDefault() string {
	if c.Environment == "" {
		return "development"
	}
	return c.Environment
}

// ProposerConfig returns the proposer model configuration with any
// configured model override applied.
func (c *Config) ProposerConfig() llm.ModelConfig {
	mc := llm.DefaultProposerConfig()
	if c.ProposerModel != "" {
		mc.Model = c.ProposerModel
	}
	return mc
}

// VerifierConfig returns the verifier model configuration with any
// configured model override applied.
func (c *Config) VerifierConfig() llm.ModelConfig {
	mc := llm.DefaultVerifierConfig()
	if c.VerifierModel != "" {
		mc.Model = c.VerifierModel
	}
	return mc
}
