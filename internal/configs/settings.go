package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Settings holds the on-disk locations used by reclaim.
type Settings struct {
	// ConfigPath is the config file location.
	ConfigPath string
	// DataDir holds the local inventory, diskv store, and audit log.
	DataDir string
}

// ResolveSettings works out file locations from the environment.
//
// The config file is $RECLAIM_CONFIG if set, otherwise
// <UserConfigDir>/reclaim/config.toml. Data lives in $RECLAIM_DATA_DIR or
// $XDG_DATA_HOME/reclaim, falling back to ~/.local/share/reclaim.
func ResolveSettings() (*Settings, error) {
	configPath := os.Getenv("RECLAIM_CONFIG")
	if configPath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("error getting config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "reclaim", "config.toml")
	}

	dataDir := os.Getenv("RECLAIM_DATA_DIR")
	if dataDir == "" {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("error getting home directory: %w", err)
			}
			base = filepath.Join(homeDir, ".local", "share")
		}
		dataDir = filepath.Join(base, "reclaim")
	}

	return &Settings{ConfigPath: configPath, DataDir: dataDir}, nil
}
