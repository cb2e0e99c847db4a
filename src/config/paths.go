package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// StoragePaths contains paths for application storage
type StoragePaths struct {
	DatabasePath string
}

// GetDefaultStoragePaths returns default storage paths using XDG base directories
func GetDefaultStoragePaths() StoragePaths {
	// XDG_STATE_HOME holds runtime state such as the session database.
	return StoragePaths{
		DatabasePath: filepath.Join(xdg.StateHome, "askimmigrate", "sessions.db"),
	}
}

// GetDefaultConfigPath returns the default user config file path
func GetDefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "askimmigrate", "config.json")
}
