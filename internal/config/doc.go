// Package config loads, normalizes, and validates goodmorning configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GOODMORNING_SYNC_DIR and NTFY_TOPIC. Personal data files (task profiles,
// dates, priorities) are referenced from here so the repository itself never
// carries machine-specific settings.
package config
