// Package config loads the brewsignal service configuration.
//
// Values are resolved in this order, later sources winning:
//
//  1. Code defaults (Default)
//  2. A YAML file named by BREWSIGNAL_CONFIG_FILE, or ./config.yaml when present
//  3. Environment variables prefixed with BREWSIGNAL_
//
// Environment keys follow the struct layout, for example:
//
//	BREWSIGNAL_SERVER_PORT=9000
//	BREWSIGNAL_LOGGING_LEVEL=debug
//	BREWSIGNAL_ENGINE_ALLOCATION_START_THRESHOLD=75
//	BREWSIGNAL_ENGINE_TIMING_WEIGHT_EVENT=0.4
//
// The engine policy is validated as part of Load; a bad policy fails fast with a
// CONFIG error listing every offending field.
package config
