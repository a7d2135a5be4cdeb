// Package config loads, normalizes, and validates coldlaw configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// COLDLAW_DATA_DIR and HF_TOKEN. The Config type centralizes every knob the
// build pipeline and CLI need, so archive, unpack, dataset, and export
// directories are all derived from one data directory in a single pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
