// Package simulator is a local stand-in for the ranch backend. It serves an
// in-memory ranch REST API, a login endpoint issuing signed session tokens
// and a WebSocket endpoint that answers the live protocol and broadcasts
// generated herd events.
package simulator
