// Package logger provides structured logging for ranchkit on top of zerolog.
//
// Every package obtains a component-scoped logger through Get:
//
//	log := logger.Get("fetch")
//	log.Debug("cache hit", logger.Fields(logger.FieldCacheKey, "ranches"))
//
// The global logger is configured once from Config (usually loaded by the
// config package) via Init.
package logger
