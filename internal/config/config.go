// Package config loads relget's settings file and resolves the
// directories the tool works in. Every value has a default; the file,
// environment overrides, and command-line flags layer on top in that
// order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides for directory resolution. Tests set these to
// keep runs isolated from the user's real state.
const (
	ConfigDirEnv = "RELGET_CONFIG_DIR"
	DataDirEnv   = "RELGET_DATA_DIR"
	CacheDirEnv  = "RELGET_CACHE_DIR"
)

// Settings is the on-disk configuration, read from
// <config dir>/config.yaml.
type Settings struct {
	// DestDir is where binaries are installed.
	DestDir string `yaml:"dest_dir"`
	// AssumeYes skips the confirmation gate for every run.
	AssumeYes bool `yaml:"assume_yes"`
	// MaxAttempts bounds download retries per URL.
	MaxAttempts int `yaml:"max_attempts"`
	// BackoffSeconds is the fixed wait between download attempts.
	BackoffSeconds int `yaml:"backoff_seconds"`
	// TimeoutSeconds bounds a single download attempt.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// Keyring is the GPG keyring used for signature-carrying artifacts.
	Keyring string `yaml:"keyring"`
	// SpecDirs are searched, in order, for Lua artifact specs that
	// extend or override the built-in catalog.
	SpecDirs []string `yaml:"spec_dirs"`
	// SelfVerify runs freshly installed binaries with --version.
	SelfVerify bool `yaml:"self_verify"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Defaults returns the settings used when no config file exists.
func Defaults() (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}
	return &Settings{
		DestDir:        filepath.Join(home, ".local", "bin"),
		MaxAttempts:    3,
		BackoffSeconds: 2,
		TimeoutSeconds: 300,
		SpecDirs:       []string{filepath.Join(configDir, "specs")},
	}, nil
}

// Dir returns the config directory, honoring the environment override.
func Dir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "relget"), nil
}

// DataDir returns the journal directory, honoring the environment
// override.
func DataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "relget"), nil
}

// CacheDir returns the download cache directory, honoring the
// environment override.
func CacheDir() (string, error) {
	if dir := os.Getenv(CacheDirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "relget"), nil
}

// Load reads settings from the config directory. A missing file is not
// an error; defaults apply. A malformed file is an error: silently
// ignoring it would run with settings the user did not choose.
func Load() (*Settings, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(dir, "config.yaml"))
}

// LoadFile reads settings from an explicit path, applying defaults for
// absent fields.
func LoadFile(path string) (*Settings, error) {
	settings, err := Defaults()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return settings, nil
}

func (s *Settings) validate() error {
	if s.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", s.MaxAttempts)
	}
	if s.BackoffSeconds < 0 {
		return fmt.Errorf("backoff_seconds must not be negative, got %d", s.BackoffSeconds)
	}
	if s.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be at least 1, got %d", s.TimeoutSeconds)
	}
	if s.DestDir == "" {
		return fmt.Errorf("dest_dir must not be empty")
	}
	return nil
}

// Backoff returns the configured retry backoff as a duration.
func (s *Settings) Backoff() time.Duration {
	return time.Duration(s.BackoffSeconds) * time.Second
}

// Timeout returns the configured per-attempt timeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}
