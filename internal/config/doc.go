// Package config loads, normalizes, and validates Achilles configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ACHILLES_STORAGE_ROOT and CLIENT_ORIGIN. The Config type centralizes every
// knob the daemon and CLI need, so the storage root is decided once at startup
// and handed to the path guard and streamer explicitly.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
