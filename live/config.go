package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/ranchkit/validation"
)

// MaxReconnectDelay caps the reconnect backoff.
const MaxReconnectDelay = 30 * time.Second

// Config configures a Manager. Start from DefaultConfig: a zero
// HeartbeatInterval disables the heartbeat and a zero MaxReconnectAttempts
// disables reconnection, so ApplyDefaults does not fill them.
type Config struct {
	// URL is an explicit endpoint and overrides Host, Path and Secure.
	URL string `mapstructure:"url" validate:"omitempty,url"`
	// Host is the endpoint host and port.
	Host string `mapstructure:"host"`
	// Path is the endpoint path.
	Path string `mapstructure:"path"`
	// Secure selects wss instead of ws.
	Secure bool `mapstructure:"secure"`

	// AutoReconnect reconnects after unexpected closes.
	AutoReconnect bool `mapstructure:"auto_reconnect"`
	// ReconnectInterval is the backoff base.
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval" validate:"gte=0"`
	// MaxReconnectAttempts is the reconnect budget between successful opens.
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts" validate:"gte=0"`

	// HeartbeatInterval is the PING period. Zero disables the heartbeat.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"gte=0"`
	// DialTimeout bounds each connection attempt.
	DialTimeout time.Duration `mapstructure:"dial_timeout" validate:"gte=0"`
	// WriteTimeout bounds each outbound frame.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`

	// Channels are subscribed after authentication in addition to the
	// identity channels.
	Channels []string `mapstructure:"channels"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Host:                 "localhost:8080",
		Path:                 "/ws",
		AutoReconnect:        true,
		ReconnectInterval:    3 * time.Second,
		MaxReconnectAttempts: 5,
		HeartbeatInterval:    30 * time.Second,
		DialTimeout:          10 * time.Second,
		WriteTimeout:         10 * time.Second,
	}
}

// ApplyDefaults fills the fields whose zero value is never meaningful.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Path == "" {
		c.Path = d.Path
	}
	if c.ReconnectInterval == 0 {
		c.ReconnectInterval = d.ReconnectInterval
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.URL != "" && !strings.HasPrefix(c.URL, "ws://") && !strings.HasPrefix(c.URL, "wss://") {
		return fmt.Errorf("live: url must use ws or wss (got: %s)", c.URL)
	}
	return nil
}

// Endpoint returns the URL the manager dials.
func (c Config) Endpoint() string {
	if c.URL != "" {
		return c.URL
	}
	scheme := "ws"
	if c.Secure {
		scheme = "wss"
	}
	return scheme + "://" + c.Host + "/" + strings.TrimLeft(c.Path, "/")
}
