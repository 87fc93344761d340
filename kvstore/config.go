package kvstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/ranchkit/encryption"
)

const (
	DriverMemory  = "memory"
	DriverLevelDB = "leveldb"
	DriverRedis   = "redis"
)

// Config selects and configures a store backend.
type Config struct {
	// Driver is the backend name: memory, leveldb, or any registered driver.
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the leveldb directory. A leading ~/ expands to the home directory.
	Path string `mapstructure:"path" json:"path"`
	// Addr is the server address for network drivers such as redis.
	Addr string `mapstructure:"addr" json:"addr"`
	// Password authenticates to network drivers.
	Password string `mapstructure:"password" json:"-"`
	// DB selects the redis database number.
	DB int `mapstructure:"db" json:"db"`
	// Namespace prefixes every key.
	Namespace string `mapstructure:"namespace" json:"namespace"`
	// EncryptionKey, when set, wraps the backend with Encrypted.
	EncryptionKey string `mapstructure:"encryption_key" json:"-"`
	// Algorithm picks the cipher used with EncryptionKey.
	Algorithm string `mapstructure:"algorithm" json:"algorithm"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Driver == DriverLevelDB && c.Path == "" {
		c.Path = filepath.Join(".", "data", "kvstore")
	}
	if c.Namespace == "" {
		c.Namespace = "ranchkit"
	}
	if c.EncryptionKey != "" && c.Algorithm == "" {
		c.Algorithm = string(encryption.AlgorithmChaCha20)
	}
}

// Validate checks the configuration for the selected driver.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
	case DriverLevelDB:
		if c.Path == "" {
			return fmt.Errorf("kvstore: path is required for leveldb")
		}
	case DriverRedis:
		if c.Addr == "" {
			return fmt.Errorf("kvstore: addr is required for redis")
		}
	default:
		if !registered(c.Driver) {
			return fmt.Errorf("kvstore: unknown driver %q", c.Driver)
		}
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
