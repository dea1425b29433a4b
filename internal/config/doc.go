// Package config loads and validates the TOML configuration for the dossier
// service: storage paths, logging, ntfy notifications, and upload limits.
//
// Load applies defaults for anything the file omits, expands ~ in paths, and
// normalizes values before validation, so a missing config file yields a fully
// usable default configuration.
package config
