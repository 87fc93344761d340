// Package component defines the lifecycle contract shared by ranchkit's
// long-lived pieces: the live connection, the HTTP adapter, the redis client
// and the metrics provider.
//
// Components are registered with a Registry (usually through bootstrap) and
// are started in registration order and stopped in reverse.
package component
