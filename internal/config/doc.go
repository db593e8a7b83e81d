// Package config loads, validates, and defaults briefcast's TOML
// configuration.
package config
