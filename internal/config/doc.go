// Package config loads, normalizes, and validates kinemetry configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Clinical tuning surfaces (detection
// thresholds, feedback weights, rhythm targets) live here alongside the
// operational knobs for the store path, daemon bind, and logging, and every
// value is checked before a session can start: a malformed threshold fails
// Load instead of silently falling back.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
