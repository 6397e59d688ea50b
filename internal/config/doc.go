// Package config loads WhisperBurn settings.
//
// Values come from three layers, later ones winning: built-in defaults, a TOML
// file (by default $XDG_CONFIG_HOME/whisperburn/config.toml) and environment
// variables, optionally seeded from a .env file. Command-line flags are applied
// on top by the cli package.
package config
