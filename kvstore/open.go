package kvstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/ranchkit/encryption"
	"github.com/kbukum/ranchkit/logger"
)

// Opener creates a Store from a validated Config.
type Opener func(cfg Config) (Store, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]Opener{
		DriverMemory: func(Config) (Store, error) { return NewMemory(), nil },
		DriverLevelDB: func(cfg Config) (Store, error) {
			return OpenLevelDB(expandHome(cfg.Path), cfg.Namespace)
		},
	}
)

// Register makes a driver available to Open. Registering a name twice
// replaces the earlier opener.
func Register(driver string, open Opener) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[driver] = open
}

// Drivers returns the sorted names of all registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func registered(driver string) bool {
	driversMu.RLock()
	defer driversMu.RUnlock()
	_, ok := drivers[driver]
	return ok
}

// Open creates the store selected by cfg.Driver, wrapped with Encrypted when
// cfg.EncryptionKey is set.
func Open(cfg Config) (Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driversMu.RLock()
	open, ok := drivers[cfg.Driver]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kvstore: driver %q is not registered", cfg.Driver)
	}

	store, err := open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.EncryptionKey == "" {
		return store, nil
	}

	enc, err := encryption.New(cfg.EncryptionKey,
		encryption.WithAlgorithm(encryption.Algorithm(cfg.Algorithm)),
		encryption.WithSalt([]byte(cfg.Namespace)))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("kvstore: %w", err)
	}
	logger.Get("kvstore").Debug("store encryption enabled",
		logger.Fields("driver", cfg.Driver, "algorithm", cfg.Algorithm))
	return NewEncrypted(store, enc), nil
}
