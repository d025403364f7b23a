package orchestrator

import (
	"fmt"
	"strings"
)

// Validator checks palette requests before any provider is contacted
type Validator struct {
	maxColors int
}

// NewValidator creates a request validator. maxColors caps the GIMP colors
// accepted per request; zero means no cap.
func NewValidator(maxColors int) *Validator {
	return &Validator{maxColors: maxColors}
}

// ValidateDemystify validates a demystify request
func (v *Validator) ValidateDemystify(req DemystifyRequest) error {
	if len(req.GimpColors) == 0 {
		return fmt.Errorf("gimp_palette_colors is required")
	}
	if v.maxColors > 0 && len(req.GimpColors) > v.maxColors {
		return fmt.Errorf("too many GIMP colors: %d (max %d)", len(req.GimpColors), v.maxColors)
	}

	for _, name := range req.GimpColors.Names() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("GIMP color name is required")
		}
		if err := req.GimpColors[name].Validate(); err != nil {
			return fmt.Errorf("invalid color %s: %w", name, err)
		}
	}

	return v.validateTemperature(req.Temperature)
}

// ValidateCreate validates a create request
func (v *Validator) ValidateCreate(req CreateRequest) error {
	if strings.TrimSpace(req.EntryText) == "" {
		return fmt.Errorf("entry_text is required")
	}

	return v.validateTemperature(req.Temperature)
}

func (v *Validator) validateTemperature(t *float64) error {
	if t == nil {
		return nil
	}
	if *t < 0 || *t > 1 {
		return fmt.Errorf("temperature must be within [0,1], got %g", *t)
	}
	return nil
}
