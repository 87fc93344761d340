package fetch

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/ranchkit/validation"
)

// Defaults applied by Config.ApplyDefaults.
const (
	DefaultTimeout       = 10 * time.Second
	DefaultCacheDuration = 5 * time.Minute
	DefaultRetryDelay    = time.Second
)

// Config is the base request of an Executor.
type Config struct {
	// URL is absolute, or relative to the adapter's BaseURL.
	URL string `mapstructure:"url" validate:"required"`
	// Method defaults to GET.
	Method string `mapstructure:"method" validate:"http_method"`
	// Headers are merged over the adapter's default headers.
	Headers map[string]string `mapstructure:"headers"`
	// Body is sent raw when it is a string or []byte, JSON-encoded otherwise.
	Body any `mapstructure:"body"`
	// Timeout bounds each attempt.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	// CacheKey enables caching of GET responses. Empty disables caching.
	CacheKey string `mapstructure:"cache_key"`
	// CacheDuration is the lifetime of entries written by the executor.
	CacheDuration time.Duration `mapstructure:"cache_duration" validate:"gte=0"`
	// Retries is the retry budget: a failing request runs Retries+1 times.
	Retries int `mapstructure:"retries" validate:"gte=0"`
	// RetryDelay is the linear backoff step: retry n waits RetryDelay*n.
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	c.Method = strings.ToUpper(c.Method)
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CacheDuration == 0 {
		c.CacheDuration = DefaultCacheDuration
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Struct(c)
}
