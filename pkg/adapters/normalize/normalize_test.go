package normalize_test

import (
	"testing"

	"github.com/aescanero/studiomuse/pkg/adapters/llm"
	"github.com/aescanero/studiomuse/pkg/adapters/normalize"
	"github.com/aescanero/studiomuse/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoMatches = `[
  {"gimp_color_name": "Color 1", "rgb_color": "rgb(1.000, 0.000, 0.000)", "physical_color_name": "Crimson Red", "mixing_suggestions": "none"},
  {"gimp_color_name": "Color 2", "rgb_color": "rgb(0.000, 0.000, 1.000)", "physical_color_name": "Royal Blue", "mixing_suggestions": "add white"}
]`

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  {"a":1}  `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"fence with prose around is kept", "Here you go:\n```json\n[1]\n```\nEnjoy!", "Here you go:\n```json\n[1]\n```\nEnjoy!"},
		{"non-ascii after fence is not a tag", "```õ\nprose```", "õ\nprose"},
		{"tag without newline", "```json[1]```", `[1]`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"other language tag", "```javascript\n[2]\n```", `[2]`},
		{"not json", "  not json at all \n", "not json at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Clean(tt.in))
		})
	}
}

func TestColorMatches_PreservesLengthAndFields(t *testing.T) {
	out := normalize.ColorMatches(twoMatches)

	require.True(t, out.OK(), out.Message)
	require.Len(t, out.Value, 2)
	assert.Equal(t, domain.ColorMatch{
		GimpColorName:     "Color 2",
		RGBColor:          "rgb(0.000, 0.000, 1.000)",
		PhysicalColorName: "Royal Blue",
		MixingSuggestions: "add white",
	}, out.Value[1])
}

func TestColorMatches_FenceIsTransparent(t *testing.T) {
	for _, wrapped := range []string{
		"```json\n" + twoMatches + "\n```",
		"```\n" + twoMatches + "\n```",
		"\n\n```json\n" + twoMatches + "```\n",
	} {
		assert.Equal(t, normalize.ColorMatches(twoMatches), normalize.ColorMatches(wrapped))
	}
}

func TestColorMatches_FenceInsideProse(t *testing.T) {
	for _, wrapped := range []string{
		"Here are the matches:\n```json\n" + twoMatches + "\n```\nLet me know if you need more.",
		"```json\n" + twoMatches + "\n```\nEnjoy!",
	} {
		out := normalize.ColorMatches(wrapped)

		require.True(t, out.OK(), out.Message)
		assert.Len(t, out.Value, 2)
	}
}

func TestColorMatches_BackticksInsideValues(t *testing.T) {
	raw := `[{"gimp_color_name": "Color 1", "rgb_color": "rgb(1.000, 0.000, 0.000)", "physical_color_name": "Crimson Red", "mixing_suggestions": "wrap as ` + "```glaze```" + ` over white"}]`

	for _, text := range []string{raw, "```json\n" + raw + "\n```"} {
		out := normalize.ColorMatches(text)

		require.True(t, out.OK(), out.Message)
		require.Len(t, out.Value, 1)
		assert.Equal(t, "wrap as ```glaze``` over white", out.Value[0].MixingSuggestions)
	}
}

func TestColorMatches_NotJSONKeepsProse(t *testing.T) {
	raw := "I could not find an exact match.\n```\nColor 1 is close to Crimson Red\n```\nPlease check the manufacturer's site."

	out := normalize.ColorMatches(raw)

	assert.Equal(t, normalize.KindDecode, out.Kind)
	assert.Equal(t, raw, out.RawText)
	assert.Contains(t, out.RawText, "I could not find an exact match.")
	assert.Contains(t, out.RawText, "Please check the manufacturer's site.")
}

func TestColorMatches_StubFixture(t *testing.T) {
	out := normalize.ColorMatches(llm.StubColorMatchResponse)

	require.True(t, out.OK())
	require.Len(t, out.Value, 3)
	for i, want := range []string{"color1", "color2", "color3"} {
		assert.Equal(t, want, out.Value[i].GimpColor)
	}
}

func TestColorMatches_NotJSON(t *testing.T) {
	for _, raw := range []string{"not json at all", "  Sorry, I cannot help.  ", "```json\n{broken\n```", ""} {
		out := normalize.ColorMatches(raw)

		assert.Equal(t, normalize.StatusError, out.Status)
		assert.Equal(t, normalize.KindDecode, out.Kind)
		assert.Equal(t, normalize.Clean(raw), out.RawText)
		assert.Nil(t, out.Value)
	}
}

func TestColorMatches_UnexpectedShape(t *testing.T) {
	t.Run("object instead of array", func(t *testing.T) {
		out := normalize.ColorMatches(`{"gimp_color_name": "Color 1"}`)

		assert.Equal(t, normalize.KindUnexpectedFormat, out.Kind)
		assert.Contains(t, out.Message, "unexpected format")
		assert.Equal(t, map[string]interface{}{"gimp_color_name": "Color 1"}, out.Unexpected)
	})

	t.Run("array of strings", func(t *testing.T) {
		out := normalize.ColorMatches(`["Crimson Red"]`)

		assert.Equal(t, normalize.KindUnexpectedFormat, out.Kind)
		assert.Equal(t, []interface{}{"Crimson Red"}, out.Unexpected)
	})
}

func TestPaletteDescriptor(t *testing.T) {
	out := normalize.PaletteDescriptor(`{"set_name":"Mont Marte 52","piece_count":52,"colors":["Red","Blue"],"additional_notes":""}`)

	require.True(t, out.OK(), out.Message)
	assert.Equal(t, domain.PaletteDescriptor{
		SetName:    "Mont Marte 52",
		PieceCount: 52,
		Colors:     []string{"Red", "Blue"},
	}, out.Value)
}

func TestPaletteDescriptor_PieceCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`"24"`, 24},
		{`" 12 "`, 12},
		{`"52 pieces"`, 52},
		{`"unknown"`, 0},
		{`null`, 0},
		{`36.0`, 36},
	}

	for _, tt := range tests {
		out := normalize.PaletteDescriptor(`{"set_name":"s","colors":[],"piece_count":` + tt.raw + `}`)
		require.True(t, out.OK(), tt.raw)
		assert.Equal(t, tt.want, out.Value.PieceCount, tt.raw)
	}
}

func TestPaletteDescriptor_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind normalize.ErrorKind
	}{
		{"not json", "I could not find that set", normalize.KindDecode},
		{"array", `["Red"]`, normalize.KindUnexpectedFormat},
		{"missing set_name", `{"colors":["Red"]}`, normalize.KindUnexpectedFormat},
		{"missing colors", `{"set_name":"x"}`, normalize.KindUnexpectedFormat},
		{"colors not strings", `{"set_name":"x","colors":[{"name":"Red"}]}`, normalize.KindUnexpectedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := normalize.PaletteDescriptor(tt.raw)

			assert.False(t, out.OK())
			assert.Equal(t, tt.kind, out.Kind)
			assert.NotEmpty(t, out.RawText)
		})
	}
}
