package llm

import (
	"go.uber.org/zap"
)

// Provider names registered by RegisterDefaults
const (
	ProviderBase       = "base"
	ProviderPerplexity = "perplexity"
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderTest       = "test-provider"
)

// RegisterDefaults registers every built-in provider on r
func RegisterDefaults(r *Registry) {
	r.Register(ProviderBase, func(p Params, l *zap.Logger) (Client, error) {
		return NewBaseClient(p, l)
	})
	r.Register(ProviderPerplexity, func(p Params, l *zap.Logger) (Client, error) {
		return NewPerplexityClient(p, l)
	})
	r.Register(ProviderGemini, func(p Params, l *zap.Logger) (Client, error) {
		return NewGeminiClient(p, l)
	})
	r.Register(ProviderAnthropic, func(p Params, l *zap.Logger) (Client, error) {
		return NewAnthropicClient(p, l)
	})
	r.Register(ProviderOpenAI, func(p Params, l *zap.Logger) (Client, error) {
		return NewOpenAIClient(p, l)
	})
	r.Register(ProviderTest, newTestProvider)
}

// NewDefaultRegistry creates a registry with every built-in provider
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	RegisterDefaults(r)
	return r
}
