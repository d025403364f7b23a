// Package prompt builds the palette prompts sent to the LLM providers.
//
// Formatting is pure: no network access, inputs are never mutated, and color
// maps are rendered in sorted name order with 3-decimal components so the
// same input always yields the same prompt.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aescanero/studiomuse/pkg/domain"
)

// Template names a prompt template
type Template string

const (
	PaletteDemystify      Template = "palette-demystify"
	PhysicalPaletteLookup Template = "physical-palette-lookup"
)

var (
	// ErrUnknownTemplate is returned by Format for unsupported template names
	ErrUnknownTemplate = errors.New("unknown prompt template")

	// ErrUnsupportedPaletteData is returned when physical palette data is
	// neither a list, a {"colors": [...]} object nor a string
	ErrUnsupportedPaletteData = errors.New("unsupported physical palette data")
)

// Fields carries the values substituted into a template
type Fields struct {
	GimpColors     domain.GimpColors
	PhysicalColors []string
	EntryText      string
}

// Format renders template with fields
func Format(template Template, fields Fields) (string, error) {
	switch template {
	case PaletteDemystify:
		if len(fields.GimpColors) == 0 {
			return "", fmt.Errorf("%s: no GIMP colors", template)
		}
		return fmt.Sprintf(demystifyTemplate,
			FormatGimpColors(fields.GimpColors),
			FormatPhysicalColors(fields.PhysicalColors)), nil
	case PhysicalPaletteLookup:
		entry := strings.TrimSpace(fields.EntryText)
		if entry == "" {
			return "", fmt.Errorf("%s: empty entry text", template)
		}
		return lookupTemplate + "\n\nThe user's physical palette is: " + entry, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, template)
	}
}

// FormatGimpColors renders one "name: rgb(r, g, b)" line per color
func FormatGimpColors(colors domain.GimpColors) string {
	lines := make([]string, 0, len(colors))
	for _, name := range colors.Names() {
		lines = append(lines, name+": "+colors[name].String())
	}
	return strings.Join(lines, "\n")
}

// FormatPhysicalColors renders one "- name" line per color
func FormatPhysicalColors(colors []string) string {
	if len(colors) == 0 {
		return "(none provided)"
	}
	lines := make([]string, len(colors))
	for i, c := range colors {
		lines[i] = "- " + c
	}
	return strings.Join(lines, "\n")
}

// NormalizePhysicalPalette turns the shapes physical palette data arrives in
// into a list of color names. A bare string is one color, not a sequence of
// characters.
func NormalizePhysicalPalette(data interface{}) ([]string, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %T", ErrUnsupportedPaletteData, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case map[string]interface{}:
		colors, ok := v["colors"]
		if !ok {
			return nil, fmt.Errorf("%w: object without colors key", ErrUnsupportedPaletteData)
		}
		if _, nested := colors.(map[string]interface{}); nested {
			return nil, fmt.Errorf("%w: colors is an object", ErrUnsupportedPaletteData)
		}
		return NormalizePhysicalPalette(colors)
	case *domain.PhysicalPalette:
		return NormalizePhysicalPalette(v.Colors)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPaletteData, data)
	}
}

const demystifyTemplate = `You are an expert in the arts and know everything there is to know about color. Your primary task is to evaluate
a list of RGB-formatted colors and provide an approximate match to a user-provided physical palette.

Instructions:
1. Carefully read the RGB colors provided by the user.
2. Carefully identify the user's physical palette information
3. Match the RGB colors to the user's physical palette.

RGB Colors from GIMP:
%s

Physical Palette Colors:
%s

Respond ONLY with a JSON array containing objects with the following structure, and no additional text:
[
  {
    "gimp_color_name": "string",
    "rgb_color": "string",
    "physical_color_name": "string",
    "mixing_suggestions": "string"
  }
]

Important: Format "rgb_color" as a simple string like "rgb(0.123, 0.456, 0.789)". Do not use nested quotes or escape characters.`

const lookupTemplate = `Instructions:
1. Search for the user's specified art supply set online.
2. Locate an official or reliable source listing the complete color names.
3. Present the results strictly in the following JSON format:
{
  "set_name": "<Exact name of the art supply set>",
  "piece_count": "<Total number of items in the set>",
  "colors": [
    "<Color Name 1>",
    "<Color Name 2>",
    ...
  ],
  "additional_notes": "<Any extra relevant information, e.g., duplicate colors, special colors, etc.>"
}

Guidelines:
- Only include official color names; avoid general descriptions.
- Ensure the output is formatted exactly as specified.
- Do not include any other text or commentary in your response outside of the JSON format.`
