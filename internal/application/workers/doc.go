// Package workers implements the bounded pool that outbound LLM calls run in.
//
// The call pool:
//   - Caps the number of concurrent provider calls
//   - Applies a per-call timeout on top of the caller's context
//   - Tracks in-flight, completed and failed calls
//
// The health monitor periodically logs pool saturation and the registry
// cache size and records them as gauges.
package workers
