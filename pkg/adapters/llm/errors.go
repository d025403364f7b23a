package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned at construction when neither an explicit key
	// nor the provider's environment variable is set
	ErrMissingAPIKey = errors.New("api key not set")

	// ErrMissingAPIURL is returned by REST providers built without an endpoint
	ErrMissingAPIURL = errors.New("api url not set")

	// ErrMalformedEnvelope means the provider answered 2xx but the body did not
	// carry the model's text where the wire format puts it
	ErrMalformedEnvelope = errors.New("malformed response envelope")
)

// UnknownProviderError is returned by Registry.Get for unregistered names
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown LLM provider: %s", e.Name)
}

// ClientConstructionError wraps a failure raised by a provider constructor
type ClientConstructionError struct {
	Provider string
	Err      error
}

func (e *ClientConstructionError) Error() string {
	return fmt.Sprintf("failed to create %s client: %v", e.Provider, e.Err)
}

func (e *ClientConstructionError) Unwrap() error {
	return e.Err
}

// ProviderCallError wraps any failure of a single CallAPI invocation:
// transport errors, non-2xx statuses, SDK errors and malformed envelopes.
type ProviderCallError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s call failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *ProviderCallError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is a configuration problem
// (unknown provider, missing credentials, failed construction) rather than a
// failure of a live call.
func IsConfigurationError(err error) bool {
	var unknown *UnknownProviderError
	var construction *ClientConstructionError
	return errors.As(err, &unknown) ||
		errors.As(err, &construction) ||
		errors.Is(err, ErrMissingAPIKey) ||
		errors.Is(err, ErrMissingAPIURL)
}
