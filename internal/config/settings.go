package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings are optional run defaults read from config.yaml. Command-line
// flags take precedence over every field.
type Settings struct {
	// Root is the tree to scan; empty means the user's home directory.
	Root string `yaml:"root"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// DryRun reports matches without changing exclusion state.
	DryRun bool `yaml:"dry_run"`
}

// LoadSettings reads config.yaml from dir. A missing file yields zero
// settings, which is the common case.
func LoadSettings(dir string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(filepath.Join(dir, SettingsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read %s: %w", SettingsFile, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", SettingsFile, err)
	}
	return s, nil
}
