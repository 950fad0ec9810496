package config

import (
	"os"
	"path/filepath"
)

// VinaviPath returns the root directory for Vinavi data.
// It uses $VINAVI_PATH if set, otherwise defaults to ~/.vinavi.
func VinaviPath() string {
	if v := os.Getenv("VINAVI_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".vinavi")
	}
	return filepath.Join(home, ".vinavi")
}

// ConfigPath returns the path to the Vinavi config file.
func ConfigPath() string {
	return filepath.Join(VinaviPath(), "config.jsonc")
}

// DotenvPath returns the path to the Vinavi .env file.
func DotenvPath() string {
	return filepath.Join(VinaviPath(), ".env")
}
