package httpclient

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/ranchkit/resilience"
)

// DefaultHeaders are sent with every request unless overridden.
var DefaultHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
}

// Config configures the HTTP adapter.
type Config struct {
	// Name identifies the adapter in logs and the component registry.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout caps a whole exchange at the client level. Zero leaves the
	// deadline to the caller's context.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests, merged over
	// DefaultHeaders.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Auth configures default authentication applied to all requests.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// CircuitBreaker fails requests fast after repeated server or transport
	// failures. Nil disables it.
	CircuitBreaker *resilience.BreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`

	// RateLimit spaces out requests. Nil disables it.
	RateLimit *resilience.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	merged := make(map[string]string, len(DefaultHeaders)+len(c.Headers))
	for k, v := range DefaultHeaders {
		merged[k] = v
	}
	for k, v := range c.Headers {
		merged[k] = v
	}
	c.Headers = merged
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("httpclient: timeout must not be negative")
	}
	if c.RateLimit != nil && c.RateLimit.Rate < 0 {
		return fmt.Errorf("httpclient: rate_limit.rate must not be negative")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("httpclient: base_url must be an absolute URL (got: %s)", c.BaseURL)
		}
	}
	return nil
}
