// Package validation checks ranchkit configuration and request input.
//
// Struct tags are evaluated with go-playground/validator; field names in
// messages come from the mapstructure (or json) tag so they match the YAML
// keys a user wrote:
//
//	type Config struct {
//	    URL    string `mapstructure:"url" validate:"required"`
//	    Method string `mapstructure:"method" validate:"http_method"`
//	}
//	err := validation.Struct(cfg)
//
// Programmatic checks collect errors the same way:
//
//	err := validation.New().
//	    Required("host", cfg.Host).
//	    Min("max_reconnect_attempts", cfg.MaxReconnectAttempts, 0).
//	    Error()
package validation
