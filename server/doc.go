// Package server provides the HTTP server used by the ranch backend
// simulator, built on Gin.
//
// A root http.ServeMux fronts the Gin engine so plain http.Handler values,
// such as the WebSocket endpoint, can be mounted on the same port.
//
// # Middleware
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation
//   - CORS: cross-origin headers and preflight handling
//   - RequestLogger: request logging with level by status
//
// # Endpoints
//
//   - /health: component health aggregation
package server
