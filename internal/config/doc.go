// Package config loads, normalizes, and validates cratechef configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CRATECHEF_DATABASE environment
// fallback. The Config type centralizes every knob the importers, the library
// scanner, and the read API need, so the database location is resolved once
// and passed explicitly into each component.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
