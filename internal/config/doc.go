// Package config loads the service's runtime configuration from multiple
// sources (YAML files, environment variables, CLI flags) with precedence:
// CLI flags > YAML config > Environment variables > Defaults. The mod
// settings themselves live in the persisted store, not here.
package config
