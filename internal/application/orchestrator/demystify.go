package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/aescanero/studiomuse/pkg/adapters/normalize"
	"github.com/aescanero/studiomuse/pkg/adapters/prompt"
	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/aescanero/studiomuse/pkg/ports"
	"go.uber.org/zap"
)

// DemystifyRequest asks which physical colors match a set of GIMP colors.
// PhysicalPaletteData may be a list of names, an object with a "colors"
// list, or a single color name.
type DemystifyRequest struct {
	GimpColors          domain.GimpColors `json:"gimp_palette_colors"`
	PhysicalPaletteData interface{}       `json:"physical_palette_data"`
	Provider            string            `json:"llm_provider,omitempty"`
	Temperature         *float64          `json:"temperature,omitempty"`
}

// DemystifyByNameRequest matches GIMP colors against a stored physical palette
type DemystifyByNameRequest struct {
	GimpColors          domain.GimpColors `json:"gimp_palette_colors"`
	PhysicalPaletteName string            `json:"physical_palette_name"`
	Provider            string            `json:"llm_provider,omitempty"`
	Temperature         *float64          `json:"temperature,omitempty"`
}

// Demystify matches GIMP colors to physical palette colors
func (m *Manager) Demystify(ctx context.Context, req DemystifyRequest) (out *Outcome) {
	defer m.finish(operationDemystify, time.Now(), &out)

	if err := m.validator.ValidateDemystify(req); err != nil {
		return failure(KindValidation, err)
	}

	physical, err := prompt.NormalizePhysicalPalette(req.PhysicalPaletteData)
	if err != nil {
		return failure(KindValidation, err)
	}

	return m.demystify(ctx, m.providerOr(req.Provider), req.Temperature, req.GimpColors, physical, "")
}

// DemystifyByName loads the physical palette from storage and runs the same
// pipeline as Demystify
func (m *Manager) DemystifyByName(ctx context.Context, req DemystifyByNameRequest) (out *Outcome) {
	defer m.finish(operationDemystify, time.Now(), &out)

	if req.PhysicalPaletteName == "" {
		return failure(KindValidation, fmt.Errorf("physical_palette_name is required"))
	}
	inline := DemystifyRequest{GimpColors: req.GimpColors, Temperature: req.Temperature}
	if err := m.validator.ValidateDemystify(inline); err != nil {
		return failure(KindValidation, err)
	}

	palette, err := m.storage.Load(ctx, req.PhysicalPaletteName)
	if err != nil {
		kind := classify(err)
		if kind == KindInternal {
			kind = KindStorage
		}
		return failure(kind, err)
	}

	physical, err := prompt.NormalizePhysicalPalette(palette)
	if err != nil {
		return failure(KindValidation, err)
	}

	return m.demystify(ctx, m.providerOr(req.Provider), req.Temperature, req.GimpColors, physical, palette.Name)
}

func (m *Manager) demystify(ctx context.Context, provider string, temperature *float64, gimp domain.GimpColors, physical []string, subject string) *Outcome {
	text, err := prompt.Format(prompt.PaletteDemystify, prompt.Fields{
		GimpColors:     gimp,
		PhysicalColors: physical,
	})
	if err != nil {
		return failure(KindValidation, err)
	}

	m.logger.Info("demystifying palette",
		zap.String("provider", provider),
		zap.Int("gimp_colors", len(gimp)),
		zap.Int("physical_colors", len(physical)))

	raw, err := m.complete(ctx, provider, temperature, text)
	if err != nil {
		fail := failure(classify(err), err)
		fail.Provider = provider
		return fail
	}

	parsed := normalize.ColorMatches(raw)
	m.metrics.RecordNormalization("color_matches", string(parsed.Status))
	if !parsed.OK() {
		m.logger.Warn("demystify response could not be normalized",
			zap.String("provider", provider),
			zap.String("kind", string(parsed.Kind)),
			zap.String("error", parsed.Message))
		return &Outcome{
			Success:     false,
			Provider:    provider,
			Error:       parsed.Message,
			ErrorKind:   KindFormat,
			RawResponse: parsed.RawText,
			Unexpected:  parsed.Unexpected,
		}
	}

	m.publish(ctx, ports.EventTypePaletteDemystified, subject, map[string]interface{}{
		"provider": provider,
		"matches":  len(parsed.Value),
	})

	return &Outcome{
		Success:  true,
		Provider: provider,
		Response: parsed.Value,
	}
}
