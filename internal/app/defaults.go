package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"barc/internal/config"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - BARC_CONFIG_PATH: config file location (default: ~/.config/barc.toml)
//   - BARC_HOME: base directory for barc data (default: ~/.local/share/barc)
func GetDefaults() (map[string]string, error) {
	configPath, err := fromEnvOrHome("BARC_CONFIG_PATH", ".config", "barc.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := fromEnvOrHome("BARC_HOME", ".local", "share", "barc")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns $env when set, otherwise the home directory joined
// with parts. Both may start with "~".
func fromEnvOrHome(env string, parts ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return ExpandHome(path)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, parts...)...), nil
}

// ExpandHome replaces a leading "~" or "~/" with the current user's home
// directory. Other paths, including "~user", are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: cannot determine home directory: %w", path, err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// expandConfigPaths applies ExpandHome to every directory setting of cfg.
func expandConfigPaths(cfg *config.Config) error {
	for _, p := range []*string{&cfg.Destination, &cfg.LogDir, &cfg.ScratchDir, &cfg.History.DataDir} {
		expanded, err := ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}
