// Package config handles configuration loading and management for hitflow.
//
// It provides functionality for:
//   - Loading configuration from .hitflow.json or .hitflow.yaml files
//   - Default configuration values
//   - Named environments used to seed chain variables
package config
