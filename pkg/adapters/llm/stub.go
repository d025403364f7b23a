package llm

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// StubColorMatchResponse is the canned demystify answer of the test provider
const StubColorMatchResponse = "```json\n" + `[
  {"gimp_color": "color1", "gimp_color_name": "color1", "rgb_color": "rgb(1.000, 0.000, 0.000)", "physical_color_name": "Crimson Red", "mixing_suggestions": "Use straight from the set"},
  {"gimp_color": "color2", "gimp_color_name": "color2", "rgb_color": "rgb(0.000, 1.000, 0.000)", "physical_color_name": "Forest Green", "mixing_suggestions": "Lighten with a touch of yellow"},
  {"gimp_color": "color3", "gimp_color_name": "color3", "rgb_color": "rgb(0.000, 0.000, 1.000)", "physical_color_name": "Royal Blue", "mixing_suggestions": "Use straight from the set"}
]` + "\n```"

// StubPaletteResponse is the canned physical-palette answer of the test provider
const StubPaletteResponse = `{"set_name": "Test Pastel Set", "piece_count": "3", "colors": ["Crimson Red", "Forest Green", "Royal Blue"], "additional_notes": "offline test provider"}`

// StubClient answers without network access. With a fixed Response it always
// returns it; otherwise it picks the canned answer matching the prompt.
type StubClient struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

// NewStubClient creates a stub returning response for every prompt
func NewStubClient(response string) *StubClient {
	return &StubClient{Response: response}
}

// newTestProvider is the Constructor registered as "test-provider"
func newTestProvider(params Params, logger *zap.Logger) (Client, error) {
	return &StubClient{}, nil
}

// Name returns the provider name
func (c *StubClient) Name() string {
	return "test-provider"
}

// CallAPI records the prompt and returns the configured answer
func (c *StubClient) CallAPI(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &ProviderCallError{Provider: c.Name(), Err: err}
	}
	if c.Err != nil {
		return "", c.Err
	}
	if c.Response != "" {
		return c.Response, nil
	}
	if strings.Contains(prompt, `"set_name"`) {
		return StubPaletteResponse, nil
	}
	return StubColorMatchResponse, nil
}

// Prompts returns every prompt received so far
func (c *StubClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}
