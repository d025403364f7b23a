// Package llm provides LLM client implementations and the provider registry.
//
// Every provider satisfies Client: CallAPI sends one prompt and returns the
// model's text, never the provider's wire envelope.
//
// Providers registered by RegisterDefaults:
//   - base: generic REST, OpenAI chat-completions schema
//   - perplexity: REST with top_k
//   - gemini: Google Gen AI SDK
//   - anthropic: Anthropic SDK
//   - openai: OpenAI SDK
//   - test-provider: offline stub with a canned color-match response
//
// The Registry memoizes one client per provider and parameter set.
package llm
