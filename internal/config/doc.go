// Package config loads, normalizes, and validates scribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and SCRIBE_API_TOKEN. The Config type centralizes every knob
// the API server and CLI need: speech backend selection, chunk budgets, worker
// pool width, and the speaker labeling defaults.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
