// Package config loads application configuration from GUARDPOST_* environment
// variables and validates it at startup.
package config
