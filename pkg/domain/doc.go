// Package domain holds the palette and color types shared by the adapters,
// the orchestrators and the API layer.
package domain
