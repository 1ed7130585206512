// Package config defines the application configuration structure and loading
// logic. Configuration is read once at startup from environment variables and
// an optional YAML file, validated, and treated as immutable afterwards.
package config
