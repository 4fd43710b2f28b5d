package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// xdgConfigFile is the settings path relative to the XDG config directories.
var xdgConfigFile = filepath.Join("asset-sync", "config.yaml") //nolint:gochecknoglobals // Derived constant.

// Find returns the settings file to load: explicit when set, otherwise the first
// of ./asset-sync.yaml, ./asset-sync.toml and $XDG_CONFIG_HOME/asset-sync/config.yaml
// that exists. An empty result means the built-in presets apply.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}

		return explicit, nil
	}

	for _, candidate := range []string{DefaultConfigFilename, DefaultTOMLConfigFilename} {
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	if path, err := xdg.SearchConfigFile(xdgConfigFile); err == nil {
		return path, nil
	}

	return "", nil
}

// LoadOrDefault loads the settings found by Find, or the presets when none exist.
// The returned path is empty when the presets were used.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		return Default(), "", nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}
