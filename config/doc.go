// Package config loads ranchkit configuration from YAML files, .env files and
// environment variables using Viper and godotenv.
//
// # Usage
//
//	var cfg AppConfig
//	if err := config.LoadConfig("ranchctl", &cfg); err != nil { ... }
//
// Files are searched in ./config, the working directory and ~/.<service>.
// Environment variables override file values using the service prefix with
// underscore-separated paths (e.g. RANCHCTL_LIVE_HOST for live.host).
package config
