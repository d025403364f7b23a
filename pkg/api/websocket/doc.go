// Package websocket streams palette events to connected clients.
//
// Clients connect to /ws and receive every palette.* event as a JSON text
// message. A "type" query parameter (for example ?type=palette.created)
// restricts the stream to one event type.
package websocket
