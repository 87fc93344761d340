// Package redis provides a Redis client component with connection pooling,
// lifecycle management, and health checks for ranchkit applications.
//
// Store adapts the client to kvstore.Store, and importing the package
// registers the "redis" driver with kvstore.Open:
//
//	import _ "github.com/kbukum/ranchkit/redis"
//
//	store, err := kvstore.Open(kvstore.Config{Driver: "redis", Addr: "localhost:6379"})
//
// # Quick Start
//
//	comp := redis.NewComponent(redis.Config{Enabled: true, Addr: "localhost:6379"})
//	registry.Register(comp)
package redis
