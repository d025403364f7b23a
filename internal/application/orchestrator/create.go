package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/studiomuse/pkg/adapters/normalize"
	"github.com/aescanero/studiomuse/pkg/adapters/prompt"
	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/aescanero/studiomuse/pkg/ports"
	"go.uber.org/zap"
)

// CreateRequest asks the model to look up a physical art-supply set
type CreateRequest struct {
	EntryText   string   `json:"entry_text"`
	Provider    string   `json:"llm_provider,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`

	// DryRun skips persistence
	DryRun bool `json:"dry_run,omitempty"`
}

// Create builds a physical palette from free text and persists it
func (m *Manager) Create(ctx context.Context, req CreateRequest) (out *Outcome) {
	defer m.finish(operationCreate, time.Now(), &out)

	if err := m.validator.ValidateCreate(req); err != nil {
		return failure(KindValidation, err)
	}

	provider := m.providerOr(req.Provider)
	text, err := prompt.Format(prompt.PhysicalPaletteLookup, prompt.Fields{EntryText: req.EntryText})
	if err != nil {
		return failure(KindValidation, err)
	}

	m.logger.Info("creating physical palette",
		zap.String("provider", provider),
		zap.String("entry_text", req.EntryText))

	raw, err := m.complete(ctx, provider, req.Temperature, text)
	if err != nil {
		fail := failure(classify(err), err)
		fail.Provider = provider
		return fail
	}

	parsed := normalize.PaletteDescriptor(raw)
	m.metrics.RecordNormalization("palette_descriptor", string(parsed.Status))
	if !parsed.OK() {
		m.logger.Warn("palette response could not be normalized",
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

	palette := domain.NewPhysicalPalette(parsed.Value, provider)
	if domain.SafeName(palette.Name) == "" {
		palette.Name = strings.TrimSpace(req.EntryText)
	}
	if domain.SafeName(palette.Name) == "" {
		fail := failure(KindValidation, fmt.Errorf("palette name %q has no usable characters", palette.Name))
		fail.Provider = provider
		return fail
	}

	out = &Outcome{
		Success:      true,
		Provider:     provider,
		Result:       palette,
		LLMNumColors: parsed.Value.PieceCount,
	}
	if req.DryRun || m.storage == nil {
		return out
	}

	if err := m.storage.Save(ctx, palette); err != nil {
		m.logger.Error("failed to save palette",
			zap.String("name", palette.Name),
			zap.Error(err))
		fail := failure(KindStorage, fmt.Errorf("failed to save palette: %w", err))
		fail.Provider = provider
		fail.Result = palette
		return fail
	}
	out.Saved = true
	m.metrics.RecordPaletteSaved(provider)

	m.publish(ctx, ports.EventTypePaletteCreated, palette.Name, map[string]interface{}{
		"id":         palette.ID,
		"provider":   provider,
		"num_colors": palette.NumColors,
	})

	return out
}

// DeletePalette removes a stored palette and announces it
func (m *Manager) DeletePalette(ctx context.Context, name string) error {
	if err := m.storage.Delete(ctx, name); err != nil {
		return err
	}

	m.publish(ctx, ports.EventTypePaletteDeleted, name, nil)
	return nil
}
