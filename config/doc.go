// Package config loads connector configuration from a YAML file, an
// optional .env file and the process environment.
//
//	var cfg MyConfig
//	err := config.LoadConfig("httpconnector", &cfg, config.WithConfigFile(path))
//
// Environment variables override file values. HTTPCONNECTOR_LOGGING_LEVEL
// sets logging.level; every underscore-separated split of the name is bound,
// so keys that themselves contain underscores still resolve.
package config
