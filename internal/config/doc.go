// Package config loads, normalizes, and validates lipsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LIPSYNC_POSE_DIR and LIPSYNC_LANGUAGE. The Config type centralizes the
// staging/pose/scene locations, per-language aligner overrides, and pose
// bindings so the CLI can assemble a compile session in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
