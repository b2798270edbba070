package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults are the default locations of the config file and case data.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables, in order of precedence:
//   - VORTEX_CONFIG_PATH, then $XDG_CONFIG_HOME/vortex.toml, then ~/.config/vortex.toml
//   - VORTEX_HOME, then $XDG_DATA_HOME/vortex, then ~/.local/share/vortex
func GetDefaults() (Defaults, error) {
	configPath, err := firstPath("VORTEX_CONFIG_PATH", "XDG_CONFIG_HOME", "vortex.toml", ".config")
	if err != nil {
		return Defaults{}, err
	}
	baseDir, err := firstPath("VORTEX_HOME", "XDG_DATA_HOME", "vortex", filepath.Join(".local", "share"))
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// firstPath returns $override verbatim, else $xdg/name, else ~/homeRel/name.
func firstPath(override, xdg, name, homeRel string) (string, error) {
	if path := os.Getenv(override); path != "" {
		return path, nil
	}
	if dir := os.Getenv(xdg); dir != "" {
		return filepath.Join(dir, name), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, homeRel, name), nil
}
