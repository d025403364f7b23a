package llm

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

const (
	PerplexityAPIURL       = "https://api.perplexity.ai/chat/completions"
	PerplexityDefaultModel = "sonar-pro"
	PerplexityDefaultTopK  = 10
	PerplexityAPIKeyEnv    = "PERPLEXITY_KEY"
)

// PerplexityClient is a chat-completions client that also sends top_k
type PerplexityClient struct {
	restTransport
	model       string
	temperature float64
	topK        int
}

// NewPerplexityClient creates a Perplexity client. The key falls back to
// PERPLEXITY_KEY; APIURL overrides the public endpoint.
func NewPerplexityClient(params Params, logger *zap.Logger) (*PerplexityClient, error) {
	apiKey, err := resolveAPIKey(params.APIKey, PerplexityAPIKeyEnv)
	if err != nil {
		return nil, err
	}

	apiURL := params.APIURL
	if apiURL == "" {
		apiURL = PerplexityAPIURL
	}

	return &PerplexityClient{
		restTransport: restTransport{
			provider:   "perplexity",
			apiURL:     apiURL,
			apiKey:     apiKey,
			httpClient: http.DefaultClient,
			logger:     logger,
		},
		model:       params.modelOr(PerplexityDefaultModel),
		temperature: params.temperatureOr(0.0),
		topK:        params.topKOr(PerplexityDefaultTopK),
	}, nil
}

// Name returns the provider name
func (c *PerplexityClient) Name() string {
	return c.provider
}

// PreparePayload builds the chat-completions body plus top_k
func (c *PerplexityClient) PreparePayload(prompt string) ChatRequest {
	topK := c.topK
	return ChatRequest{
		Model:       c.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		TopK:        &topK,
	}
}

// PrepareHeaders returns the request headers
func (c *PerplexityClient) PrepareHeaders() http.Header {
	return c.headers()
}

// CallAPI sends prompt and returns the model's text
func (c *PerplexityClient) CallAPI(ctx context.Context, prompt string) (string, error) {
	return c.post(ctx, c.PreparePayload(prompt), c.PrepareHeaders())
}
