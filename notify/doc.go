// Package notify delivers user-facing notifications raised by the live
// connection and by commands.
//
// Sink is the single-method interface producers depend on. Center keeps the
// in-memory list shown to the user: it assigns IDs, removes non-persistent
// notifications after a delay, fans out to subscribers and drops categories
// the user has muted. Muted categories are persisted in a kvstore.Store.
// LogSink writes notifications to the structured logger.
package notify
