// Package config loads and validates the wherering settings file.
//
// Settings come from a YAML file and may be overridden by WHERERING_*
// environment variables. Validate fills defaults for optional fields.
package config
