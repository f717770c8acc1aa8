package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// AppDirName is the folder under the user config directory holding gdpm settings.
const AppDirName = "gdpm"

// SettingsFileName is the name of the user settings file.
const SettingsFileName = "config.toml"

// DefaultSourceRoot is used when neither the manifest nor the settings name a source root.
const DefaultSourceRoot = "."

// Settings are user-level preferences shared by every project.
type Settings struct {
	DefaultSource string `toml:"default_source" env:"GDPM_DEFAULT_SOURCE"`
	Schema        string `toml:"schema"         env:"GDPM_SCHEMA"`
	Verbose       bool   `toml:"verbose"        env:"GDPM_VERBOSE"`
}

type locator struct {
	Path string `env:"GDPM_CONFIG"`
}

// DefaultPath returns $GDPM_CONFIG, or config.toml under the user config directory.
func DefaultPath() (string, error) {
	var loc locator
	if err := env.Parse(&loc); err != nil {
		return "", fmt.Errorf("parse env: %w", err)
	}
	if loc.Path != "" {
		return loc.Path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, AppDirName, SettingsFileName), nil
}

// LoadSettings reads the settings file at path. A missing file yields empty settings.
func LoadSettings(path string) (*Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode settings %s: %w", path, err)
	}
	return &s, nil
}

// ApplyEnv overrides fields of s with any GDPM_* environment variables that are set.
func ApplyEnv(s *Settings) error {
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the settings file at DefaultPath with environment overrides applied.
func Load() (*Settings, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	s, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(s); err != nil {
		return nil, err
	}
	return s, nil
}

// SourceRoot picks the raw source root: the manifest's defaultSource first, then
// the settings, then the current directory.
func (s *Settings) SourceRoot(manifestDefault string) string {
	if manifestDefault != "" {
		return manifestDefault
	}
	if s != nil && s.DefaultSource != "" {
		return s.DefaultSource
	}
	return DefaultSourceRoot
}
