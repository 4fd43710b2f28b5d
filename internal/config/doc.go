// Package config defines the asset-sync settings: where the version record,
// durable log and installed trees live, and how each vendored asset is
// discovered, downloaded and unpacked.
//
// Settings are read from YAML or TOML, validated with defaults filled in, and
// fall back to built-in presets when no settings file exists.
package config
