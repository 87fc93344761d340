// Package kvstore provides the persisted key-value store used for session
// tokens and notification preferences.
//
// Backends:
//   - Memory: process-local map, used by tests and one-shot commands.
//   - LevelDB: on-disk store built on goleveldb.
//   - Redis: registered by the redis package under the "redis" driver.
//
// Any backend can be wrapped with Encrypted so values are sealed at rest.
//
// Usage:
//
//	store, err := kvstore.Open(kvstore.Config{Driver: "leveldb", Path: "~/.ranchctl/data"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	token, err := kvstore.GetOr(ctx, store, "auth_token", "")
package kvstore
