// Package normalize turns raw LLM text into domain values.
//
// Every entry point returns an Outcome and never an error: model output is
// untrusted input, so a bad answer degrades into a PARSED-ERROR outcome that
// still carries the cleaned text or the wrongly shaped value.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/tidwall/gjson"
)

// Status is the terminal state of a normalization
type Status string

const (
	StatusOK    Status = "parsed_ok"
	StatusError Status = "parsed_error"
)

// ErrorKind classifies a PARSED-ERROR outcome
type ErrorKind string

const (
	KindDecode           ErrorKind = "decode"
	KindUnexpectedFormat ErrorKind = "unexpected_format"
)

// Outcome is the result of normalizing one response
type Outcome[T any] struct {
	Status     Status      `json:"status"`
	Value      T           `json:"value,omitempty"`
	Kind       ErrorKind   `json:"error_kind,omitempty"`
	Message    string      `json:"error,omitempty"`
	RawText    string      `json:"raw_text,omitempty"`
	Unexpected interface{} `json:"unexpected,omitempty"`
}

// OK reports whether the response had the expected shape
func (o Outcome[T]) OK() bool {
	return o.Status == StatusOK
}

const fence = "```"

// Clean trims the text and strips a fence wrapping it: a leading fence with
// an optional language tag and a trailing fence. Prose outside a fence is
// kept, so the cleaned text is what reaches the user when parsing fails.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	body := strings.TrimSpace(stripLanguageTag(text[len(fence):]))
	body = strings.TrimSuffix(body, fence)
	return strings.TrimSpace(body)
}

// fencedBlock returns the content of the first fenced block in text. An
// unterminated fence runs to the end of the text.
func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, fence)
	if start < 0 {
		return "", false
	}
	body := stripLanguageTag(text[start+len(fence):])

	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}

// stripLanguageTag drops an info string such as "json" following an opening fence
func stripLanguageTag(body string) string {
	i := 0
	for i < len(body) && isTagByte(body[i]) {
		i++
	}
	if i == 0 {
		return body
	}
	if strings.EqualFold(body[:i], "json") {
		return body[i:]
	}
	if i == len(body) || body[i] == '\n' || body[i] == '\r' {
		return body[i:]
	}
	return body
}

// isTagByte accepts the ASCII characters of a fence info string
func isTagByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '-' || b == '_'
}

// ColorMatches normalizes a demystify response: a JSON array of match records
func ColorMatches(raw string) Outcome[[]domain.ColorMatch] {
	root, fail := decode[[]domain.ColorMatch](raw)
	if fail != nil {
		return *fail
	}
	if !root.IsArray() {
		return unexpected[[]domain.ColorMatch](root, "expected a JSON array of color matches, got %s", kindOf(root))
	}

	items := root.Array()
	matches := make([]domain.ColorMatch, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return unexpected[[]domain.ColorMatch](root, "color match %d is %s, not an object", i, kindOf(item))
		}
		matches = append(matches, domain.ColorMatch{
			GimpColor:         item.Get("gimp_color").String(),
			GimpColorName:     item.Get("gimp_color_name").String(),
			RGBColor:          item.Get("rgb_color").String(),
			PhysicalColorName: item.Get("physical_color_name").String(),
			MixingSuggestions: item.Get("mixing_suggestions").String(),
		})
	}

	return Outcome[[]domain.ColorMatch]{Status: StatusOK, Value: matches}
}

// PaletteDescriptor normalizes a physical-palette-lookup response. set_name and
// colors are required; piece_count may be a number or a numeric string.
func PaletteDescriptor(raw string) Outcome[domain.PaletteDescriptor] {
	root, fail := decode[domain.PaletteDescriptor](raw)
	if fail != nil {
		return *fail
	}
	if !root.IsObject() {
		return unexpected[domain.PaletteDescriptor](root, "expected a JSON object describing the palette, got %s", kindOf(root))
	}

	setName := root.Get("set_name")
	if !setName.Exists() || setName.Type != gjson.String {
		return unexpected[domain.PaletteDescriptor](root, "set_name missing or not a string")
	}
	colors := root.Get("colors")
	if !colors.IsArray() {
		return unexpected[domain.PaletteDescriptor](root, "colors missing or not an array")
	}

	names := make([]string, 0, len(colors.Array()))
	for i, c := range colors.Array() {
		if c.Type != gjson.String {
			return unexpected[domain.PaletteDescriptor](root, "color %d is %s, not a string", i, kindOf(c))
		}
		names = append(names, c.String())
	}

	return Outcome[domain.PaletteDescriptor]{
		Status: StatusOK,
		Value: domain.PaletteDescriptor{
			SetName:         setName.String(),
			PieceCount:      pieceCount(root.Get("piece_count")),
			Colors:          names,
			AdditionalNotes: root.Get("additional_notes").String(),
		},
	}
}

// pieceCount reads a count given as a number, a numeric string or a string
// starting with digits ("52 pieces"). Anything else counts as 0.
func pieceCount(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		return int(v.Int())
	case gjson.String:
		s := strings.TrimSpace(v.String())
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		n, err := strconv.Atoi(s[:end])
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// decode parses the cleaned text, falling back to the first fenced block
// when the text around a fence is not JSON. On failure RawText carries the
// cleaned text, prose included.
func decode[T any](raw string) (gjson.Result, *Outcome[T]) {
	cleaned := Clean(raw)
	candidates := []string{cleaned}
	if block, ok := fencedBlock(strings.TrimSpace(raw)); ok && block != cleaned {
		candidates = append(candidates, block)
	}

	for _, text := range candidates {
		if text != "" && gjson.Valid(text) {
			return gjson.Parse(text), nil
		}
	}

	return gjson.Result{}, &Outcome[T]{
		Status:  StatusError,
		Kind:    KindDecode,
		Message: "response is not valid JSON",
		RawText: cleaned,
	}
}

func unexpected[T any](root gjson.Result, format string, args ...interface{}) Outcome[T] {
	return Outcome[T]{
		Status:     StatusError,
		Kind:       KindUnexpectedFormat,
		Message:    "unexpected format: " + fmt.Sprintf(format, args...),
		RawText:    root.Raw,
		Unexpected: root.Value(),
	}
}

func kindOf(v gjson.Result) string {
	switch {
	case v.IsArray():
		return "an array"
	case v.IsObject():
		return "an object"
	case v.Type == gjson.String:
		return "a string"
	case v.Type == gjson.Number:
		return "a number"
	case v.Type == gjson.True, v.Type == gjson.False:
		return "a boolean"
	default:
		return "null"
	}
}
