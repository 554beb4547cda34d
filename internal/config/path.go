// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath resolves the learned-pattern database location from config,
// falling back to the default under the user data directory.
func DatabasePath() string {
	if path := viper.GetString("database.path"); path != "" {
		return ExpandPath(path)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "grana.db"
	}
	return filepath.Join(home, ".local", "share", "grana", "grana.db")
}

// DictionaryPath returns the configured override for the curated dictionary
// file, or "" to use the embedded set.
func DictionaryPath() string {
	return ExpandPath(viper.GetString("dictionary.path"))
}
