package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	// PaletteTypePhysical marks palettes describing a real art-supply set
	PaletteTypePhysical = "physical"

	// PaletteVersion is the persisted format version
	PaletteVersion = "1.0.0"
)

// PaletteDescriptor is what the physical-palette-lookup prompt asks the LLM for.
type PaletteDescriptor struct {
	SetName         string   `json:"set_name"`
	PieceCount      int      `json:"piece_count"`
	Colors          []string `json:"colors"`
	AdditionalNotes string   `json:"additional_notes"`
}

// PhysicalPalette is a persisted physical palette.
type PhysicalPalette struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Colors          []string  `json:"colors"`
	PieceCount      int       `json:"piece_count"`
	NumColors       int       `json:"num_colors"`
	AdditionalNotes string    `json:"additional_notes"`
	PaletteType     string    `json:"palette_type,omitempty"`
	Source          string    `json:"source,omitempty"`
	CreatedDate     time.Time `json:"created_date"`
	Version         string    `json:"version"`
}

// NewPhysicalPalette builds a palette record from an LLM descriptor.
// NumColors is the number of colors actually listed, which can differ from
// the piece count the model reported.
func NewPhysicalPalette(desc PaletteDescriptor, source string) *PhysicalPalette {
	colors := make([]string, len(desc.Colors))
	copy(colors, desc.Colors)

	return &PhysicalPalette{
		ID:              uuid.New().String(),
		Name:            desc.SetName,
		Colors:          colors,
		PieceCount:      desc.PieceCount,
		NumColors:       len(colors),
		AdditionalNotes: desc.AdditionalNotes,
		PaletteType:     PaletteTypePhysical,
		Source:          source,
		CreatedDate:     time.Now().UTC(),
		Version:         PaletteVersion,
	}
}

// SafeName turns a palette name into a storage key: alphanumerics, space,
// underscore and dash are kept, spaces become underscores.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimRight(b.String(), " "), " ", "_")
}
