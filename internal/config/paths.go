package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the lazycloud config directory under the user config base.
// On Linux, this typically resolves to $XDG_CONFIG_HOME/lazycloud; on macOS
// to ~/Library/Application Support/lazycloud; and on Windows to %AppData%/lazycloud.
// Falls back to HOME when UserConfigDir is unavailable.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(base) == "" {
		if home, herr := os.UserHomeDir(); herr == nil {
			base = home
		} else {
			return "", errors.New("cannot determine config directory")
		}
	}
	return filepath.Join(base, "lazycloud"), nil
}

// Path returns the location of config.yaml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LogPath returns the default log file used by --log-file without a value.
func LogPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lazycloud.log"), nil
}
