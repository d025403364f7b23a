package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	OpenAIDefaultModel = "gpt-4o-mini"
	OpenAIAPIKeyEnv    = "OPENAI_API_KEY"
)

// OpenAIClient calls the chat completions API through the OpenAI SDK
type OpenAIClient struct {
	client          openai.Client
	model           string
	temperature     float64
	maxOutputTokens int
	logger          *zap.Logger
}

// NewOpenAIClient creates an OpenAI client. The key falls back to OPENAI_API_KEY.
func NewOpenAIClient(params Params, logger *zap.Logger) (*OpenAIClient, error) {
	apiKey, err := resolveAPIKey(params.APIKey, OpenAIAPIKeyEnv)
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

	return &OpenAIClient{
		client:          openai.NewClient(opts...),
		model:           params.modelOr(OpenAIDefaultModel),
		temperature:     params.temperatureOr(0.0),
		maxOutputTokens: params.maxOutputTokensOr(0),
		logger:          logger,
	}, nil
}

// Name returns the provider name
func (c *OpenAIClient) Name() string {
	return "openai"
}

// CallAPI sends prompt and returns choices[0].message.content
func (c *OpenAIClient) CallAPI(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
	}
	if c.maxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxOutputTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		callErr := &ProviderCallError{Provider: c.Name(), Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			callErr.StatusCode = apiErr.StatusCode
		}
		return "", callErr
	}

	if len(completion.Choices) == 0 {
		return "", &ProviderCallError{Provider: c.Name(), Err: fmt.Errorf("%w: no choices", ErrMalformedEnvelope)}
	}

	c.logger.Debug("LLM call completed",
		zap.String("model", string(completion.Model)),
		zap.Int64("total_tokens", completion.Usage.TotalTokens))

	return completion.Choices[0].Message.Content, nil
}
