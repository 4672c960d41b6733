// Package config provides configuration management for Saturn.
//
// This package handles loading, validating and defaulting configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("saturn.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("saturn.yaml")
//
// When no file is available, Default returns a validated configuration built
// purely from defaults, and ApplyEnvOverrides can be applied on top of it.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SATURN_SECTION_FIELD.
// For example:
//
//   - SATURN_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - SATURN_PROVIDER_REGION overrides provider.region
//   - SATURN_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All field errors are collected into a single ValidationError so an
// operator sees every problem at once.
package config
