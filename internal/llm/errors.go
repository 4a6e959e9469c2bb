package llm

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or invalid construction-time setting.
// It is fatal: raised when a client or engine is built, never per request.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// ParseError reports a provider reply that was not valid JSON after
// code-fence stripping. Reported, never retried.
type ParseError struct {
	Provider string
	Cause    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s JSON parse error: %v", e.Provider, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ProviderError reports a provider-side failure (network, auth, quota) on an
// outbound call. Reported, never retried.
type ProviderError struct {
	Provider string
	Op       string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Op, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsProviderError reports whether err is a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
