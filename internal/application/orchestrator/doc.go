// Package orchestrator implements the palette operations on top of the LLM
// provider registry.
//
// The orchestrator manager runs every operation through the same pipeline:
//   - Validate the request and resolve a client from the registry
//   - Format the prompt and call the provider inside the call pool
//   - Normalize the response and persist or publish the result
//
// Every failure, including a panic in any layer, comes back as an Outcome
// with Success false, so callers handle exactly one result shape.
package orchestrator
