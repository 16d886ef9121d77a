package main

import (
	"os"
	"path/filepath"
)

// registryFileName is the on-disk name of the transactional registry,
// always found directly under the configuration root.
const registryFileName = ".install.sqlite"

// configRoot returns the directory repositories are discovered under
// and the registry file lives in: $LONTRA_ROOT if set, else
// $XDG_CONFIG_HOME/lontra, else $HOME/.config/lontra.
func configRoot() (string, error) {
	if v := os.Getenv("LONTRA_ROOT"); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "lontra"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lontra"), nil
}
