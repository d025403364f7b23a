package orchestrator

import (
	"github.com/aescanero/studiomuse/pkg/domain"
)

// Outcome is the uniform result of a palette operation
type Outcome struct {
	Success bool `json:"success"`

	// Response carries the color matches of a demystify operation
	Response []domain.ColorMatch `json:"response,omitempty"`

	// Result carries the palette built by a create operation, and
	// LLMNumColors the piece count the model reported for it
	Result       *domain.PhysicalPalette `json:"result,omitempty"`
	LLMNumColors int                     `json:"llm_num_colors,omitempty"`
	Saved        bool                    `json:"saved,omitempty"`

	Provider    string      `json:"provider,omitempty"`
	Error       string      `json:"error,omitempty"`
	ErrorKind   ErrorKind   `json:"error_kind,omitempty"`
	RawResponse string      `json:"raw_response,omitempty"`
	Unexpected  interface{} `json:"unexpected,omitempty"`
}

func failure(kind ErrorKind, err error) *Outcome {
	return &Outcome{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: kind,
	}
}
