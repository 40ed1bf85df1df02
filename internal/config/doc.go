// Package config loads the cluster configuration from TOML and validates it.
package config
