package simulator

import (
	"time"

	"github.com/kbukum/ranchkit/server"
	"github.com/kbukum/ranchkit/validation"
)

// Config configures a Simulator.
type Config struct {
	Server server.Config `mapstructure:"server"`
	// JWTSecret signs the tokens issued by /api/auth/login.
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// EventInterval is the period of generated herd events. Zero disables
	// the generator.
	EventInterval time.Duration `mapstructure:"event_interval"`
	// Seed makes generated events reproducible. Zero seeds from the clock.
	Seed int64 `mapstructure:"seed"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	if c.JWTSecret == "" {
		c.JWTSecret = "ranchkit-dev-secret"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return validation.New().
		NonNegative("simulator.token_ttl", c.TokenTTL).
		NonNegative("simulator.event_interval", c.EventInterval).
		Error()
}
