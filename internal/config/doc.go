// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// e.g. a Redis password or Postgres credentials for the snapshot store.
package config
