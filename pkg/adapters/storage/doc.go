// Package storage provides physical palette storage implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and optional TTL
//   - file: one JSON file per palette under a directory, guarded by a file lock
//   - memory: In-memory for testing and single-process use
//
// Every implementation keys palettes by domain.SafeName, so a palette saved as
// "Mont Marte 52" loads as either "Mont Marte 52" or "Mont_Marte_52".
package storage
