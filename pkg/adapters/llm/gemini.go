package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	GeminiDefaultModel           = "gemini-1.5-flash"
	GeminiDefaultTemperature     = 1.0
	GeminiDefaultMaxOutputTokens = 2048
	GeminiAPIKeyEnv              = "GEMINI_API_KEY"
)

// contentGenerator is the part of the Gen AI SDK the client uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient calls Gemini through the Google Gen AI SDK. It has no api url
// of its own; APIURL only overrides the SDK base URL.
type GeminiClient struct {
	models          contentGenerator
	model           string
	temperature     float64
	maxOutputTokens int
	logger          *zap.Logger
}

// NewGeminiClient creates a Gemini client. The key falls back to GEMINI_API_KEY.
func NewGeminiClient(params Params, logger *zap.Logger) (*GeminiClient, error) {
	apiKey, err := resolveAPIKey(params.APIKey, GeminiAPIKeyEnv)
	if err != nil {
		return nil, err
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if params.APIURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: params.APIURL}
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newGeminiClient(client.Models, params, logger), nil
}

func newGeminiClient(models contentGenerator, params Params, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		models:          models,
		model:           params.modelOr(GeminiDefaultModel),
		temperature:     params.temperatureOr(GeminiDefaultTemperature),
		maxOutputTokens: params.maxOutputTokensOr(GeminiDefaultMaxOutputTokens),
		logger:          logger,
	}
}

// Name returns the provider name
func (c *GeminiClient) Name() string {
	return "gemini"
}

// GenerationConfig returns the generation settings sent with every call
func (c *GeminiClient) GenerationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.temperature)),
		MaxOutputTokens: int32(c.maxOutputTokens),
	}
}

// CallAPI sends prompt and returns the response text
func (c *GeminiClient) CallAPI(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), c.GenerationConfig())
	if err != nil {
		return "", &ProviderCallError{Provider: c.Name(), Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &ProviderCallError{Provider: c.Name(), Err: fmt.Errorf("%w: no candidates", ErrMalformedEnvelope)}
	}

	text := resp.Text()
	if text == "" {
		var reason genai.FinishReason
		if first := resp.Candidates[0]; first != nil {
			reason = first.FinishReason
		}
		return "", &ProviderCallError{
			Provider: c.Name(),
			Err:      fmt.Errorf("%w: no text in candidates (finish reason %q)", ErrMalformedEnvelope, reason),
		}
	}

	c.logger.Debug("LLM call completed",
		zap.String("model", c.model),
		zap.Int("content_length", len(text)))

	return text, nil
}
