package commands

import (
	"fmt"
	"time"

	"github.com/kbukum/ranchkit/config"
	"github.com/kbukum/ranchkit/internal/simulator"
	"github.com/kbukum/ranchkit/kvstore"
	"github.com/kbukum/ranchkit/live"
	"github.com/kbukum/ranchkit/observability"
	"github.com/kbukum/ranchkit/resilience"
	"github.com/kbukum/ranchkit/server"
	"github.com/kbukum/ranchkit/validation"
	"github.com/kbukum/ranchkit/version"
)

const serviceName = "ranchctl"

// APIConfig points the CLI at the ranch REST API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	CircuitBreaker *resilience.BreakerConfig   `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimit      *resilience.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AppConfig is the ranchctl configuration file, usually ranchctl.yml.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API       APIConfig                 `yaml:"api" mapstructure:"api"`
	Store     kvstore.Config            `yaml:"store" mapstructure:"store"`
	Live      live.Config               `yaml:"live" mapstructure:"live"`
	Metrics   observability.MeterConfig `yaml:"metrics" mapstructure:"metrics"`
	Simulator simulator.Config          `yaml:"simulator" mapstructure:"simulator"`
}

// defaultConfig seeds the values whose zero value is meaningful, so a
// config file can still turn them off.
func defaultConfig() *AppConfig {
	metrics := observability.DefaultMeterConfig(serviceName)
	metrics.ServiceVersion = version.Version
	return &AppConfig{
		ServiceConfig: config.ServiceConfig{Name: serviceName, Version: version.Version},
		API:           APIConfig{BaseURL: "http://localhost:8080"},
		Store:         kvstore.Config{Driver: kvstore.DriverLevelDB, Path: "~/.ranchctl/store"},
		Live:          live.DefaultConfig(),
		Metrics:       metrics,
		Simulator: simulator.Config{
			Server:        server.Config{Port: 8080},
			EventInterval: 2 * time.Second,
		},
	}
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	c.Store.ApplyDefaults()
	c.Live.ApplyDefaults()
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 15 * time.Second
	}
	c.Simulator.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.New().
		Required("api.base_url", c.API.BaseURL).
		NonNegative("api.timeout", c.API.Timeout).
		Error(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("config.store: %w", err)
	}
	if err := c.Live.Validate(); err != nil {
		return fmt.Errorf("config.live: %w", err)
	}
	if err := c.Simulator.Validate(); err != nil {
		return fmt.Errorf("config.simulator: %w", err)
	}
	return nil
}

func loadConfig(opts globalOptions) (*AppConfig, error) {
	cfg := defaultConfig()
	var loaderOpts []config.LoaderOption
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(opts.envFile))
	}
	if err := config.LoadConfig(serviceName, cfg, loaderOpts...); err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}
