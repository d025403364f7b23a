// Package events provides palette event bus implementations.
//
// Implementations:
//   - redis: Redis Streams with consumer groups, so events survive restarts
//     and can be consumed by other processes
//   - memory: In-memory fan-out for tests and single-process deployments
package events
