package types

import (
	"github.com/go-playground/validator/v10"
)

// ExtractRequest is the request body for the extraction endpoints.
type ExtractRequest struct {
	Text string `json:"text" validate:"required,min=10"`
	// MaxChunkSize overrides the default chunk size on the chunked endpoint.
	MaxChunkSize int `json:"max_chunk_size,omitempty" validate:"omitempty,min=100"`
	// Workers bounds optional chunk fan-out; 0 or 1 keeps processing sequential.
	Workers int `json:"workers,omitempty" validate:"omitempty,min=1,max=16"`
}

// IngestRequest is the request body for URL-based extraction.
type IngestRequest struct {
	URL          string `json:"url" validate:"required,url"`
	MaxChunkSize int    `json:"max_chunk_size,omitempty" validate:"omitempty,min=100"`
	Workers      int    `json:"workers,omitempty" validate:"omitempty,min=1,max=16"`
}

// Validate validates the ExtractRequest using the validator.
func (r *ExtractRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the IngestRequest using the validator.
func (r *IngestRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
