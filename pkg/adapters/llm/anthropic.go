package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const (
	AnthropicDefaultModel     = "claude-3-5-sonnet-20241022"
	AnthropicDefaultMaxTokens = 1024
	AnthropicAPIKeyEnv        = "ANTHROPIC_KEY"
)

// AnthropicClient calls Claude through the Anthropic SDK
type AnthropicClient struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewAnthropicClient creates a Claude client. The key falls back to ANTHROPIC_KEY.
func NewAnthropicClient(params Params, logger *zap.Logger) (*AnthropicClient, error) {
	apiKey, err := resolveAPIKey(params.APIKey, AnthropicAPIKeyEnv)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if params.APIURL != "" {
		opts = append(opts, option.WithBaseURL(params.APIURL))
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(opts...),
		model:       params.modelOr(AnthropicDefaultModel),
		temperature: params.temperatureOr(0.0),
		maxTokens:   params.maxOutputTokensOr(AnthropicDefaultMaxTokens),
		logger:      logger,
	}, nil
}

// Name returns the provider name
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// CallAPI sends prompt and returns the concatenated text blocks of the reply
func (c *AnthropicClient) CallAPI(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(c.temperature),
	})
	if err != nil {
		callErr := &ProviderCallError{Provider: c.Name(), Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			callErr.StatusCode = apiErr.StatusCode
		}
		return "", callErr
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", &ProviderCallError{Provider: c.Name(), Err: fmt.Errorf("%w: no text content", ErrMalformedEnvelope)}
	}

	c.logger.Debug("LLM call completed",
		zap.String("model", c.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens))

	return text.String(), nil
}
