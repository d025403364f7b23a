package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// maxErrorBody caps how much of a non-2xx body ends up in an error message
const maxErrorBody = 2048

// ChatMessage is one entry of a chat-completions "messages" array
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat-completions request body
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopK        *int          `json:"top_k,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// restTransport is the HTTP plumbing shared by the chat-completions providers
type restTransport struct {
	provider   string
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// headers returns the default headers: bearer auth and a JSON content type
func (t *restTransport) headers() http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+t.apiKey)
	h.Set("Content-Type", "application/json")
	return h
}

// post sends payload and returns choices[0].message.content
func (t *restTransport) post(ctx context.Context, payload interface{}, headers http.Header) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &ProviderCallError{Provider: t.provider, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", &ProviderCallError{Provider: t.provider, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header = headers

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", &ProviderCallError{Provider: t.provider, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &ProviderCallError{
			Provider:   t.provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", string(respBody)),
		}
	}

	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", &ProviderCallError{Provider: t.provider, Err: fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)}
	}

	if len(envelope.Choices) == 0 {
		return "", &ProviderCallError{Provider: t.provider, Err: fmt.Errorf("%w: no choices", ErrMalformedEnvelope)}
	}
	msg := envelope.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", &ProviderCallError{Provider: t.provider, Err: fmt.Errorf("%w: choices[0] has no message content", ErrMalformedEnvelope)}
	}

	t.logger.Debug("LLM call completed",
		zap.Int("status", resp.StatusCode),
		zap.Int("content_length", len(*msg.Content)))

	return *msg.Content, nil
}

// BaseClient talks to any chat-completions style REST endpoint
type BaseClient struct {
	restTransport
	model       string
	temperature float64
}

// BaseAPIKeyEnv is the fallback credential for the generic REST provider
const BaseAPIKeyEnv = "LLM_API_KEY"

// NewBaseClient creates a generic REST client. APIURL and a key are required.
func NewBaseClient(params Params, logger *zap.Logger) (*BaseClient, error) {
	if params.APIURL == "" {
		return nil, ErrMissingAPIURL
	}
	if params.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	apiKey, err := resolveAPIKey(params.APIKey, BaseAPIKeyEnv)
	if err != nil {
		return nil, err
	}

	return &BaseClient{
		restTransport: restTransport{
			provider:   "base",
			apiURL:     params.APIURL,
			apiKey:     apiKey,
			httpClient: http.DefaultClient,
			logger:     logger,
		},
		model:       params.Model,
		temperature: params.temperatureOr(0.0),
	}, nil
}

// Name returns the provider name
func (c *BaseClient) Name() string {
	return c.provider
}

// PreparePayload builds {model, messages:[{role:"user",content}], temperature}
func (c *BaseClient) PreparePayload(prompt string) ChatRequest {
	return ChatRequest{
		Model:       c.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	}
}

// PrepareHeaders returns the request headers
func (c *BaseClient) PrepareHeaders() http.Header {
	return c.headers()
}

// CallAPI sends prompt and returns the model's text
func (c *BaseClient) CallAPI(ctx context.Context, prompt string) (string, error) {
	return c.post(ctx, c.PreparePayload(prompt), c.PrepareHeaders())
}
