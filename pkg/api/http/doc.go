// Package http provides the HTTP REST API the GIMP plugin talks to.
//
// The HTTP server exposes endpoints for:
//   - Palette demystification and physical palette creation
//   - Stored palette listing, lookup and deletion
//   - Health checks and the sanitized configuration
//   - Prometheus metrics
//
// Palette endpoints answer {success, response|result, error}. Requests that
// fail validation get 400, configuration problems 422 and provider failures
// 502. A model answer that cannot be parsed is still a 200 with success false
// and the raw text in raw_response, so the plugin can show it.
package http
