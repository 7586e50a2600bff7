// Package config loads, normalizes, and validates shepherd configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need: data and log directories, the approval policy (whether
// role changes require approval and how long requests stay open), the expiry
// sweep interval, and logging/telemetry output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
