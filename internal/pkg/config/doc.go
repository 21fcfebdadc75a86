// Package config reads typed configuration values from a YAML file with
// environment variable overrides.
package config
