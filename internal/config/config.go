// Package config loads application configuration from environment variables
// and resolves the paths inside the configuration directory.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	appDirName = "totpvault"
	dbFileName = "totpvault.db"
	iconsDir   = "icons"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ConfigDir string
	Workers   int
	LogLevel  slog.Level
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional: TOTPVAULT_CONFIG_DIR (<user config dir>/totpvault),
// TOTPVAULT_WORKERS (2), TOTPVAULT_LOG_LEVEL (warn).
func Load() (*Config, error) {
	configDir, ok := os.LookupEnv("TOTPVAULT_CONFIG_DIR")
	if !ok || configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		configDir = filepath.Join(base, appDirName)
	}

	workers := 2
	if v, ok := os.LookupEnv("TOTPVAULT_WORKERS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TOTPVAULT_WORKERS has invalid value %q: %w", v, err)
		}
		if parsed < 1 {
			return nil, fmt.Errorf("TOTPVAULT_WORKERS must be at least 1, got %d", parsed)
		}
		workers = parsed
	}

	level := slog.LevelWarn
	if v, ok := os.LookupEnv("TOTPVAULT_LOG_LEVEL"); ok && v != "" {
		if err := level.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return nil, fmt.Errorf("TOTPVAULT_LOG_LEVEL has invalid value %q: %w", v, err)
		}
	}

	return &Config{
		ConfigDir: configDir,
		Workers:   workers,
		LogLevel:  level,
	}, nil
}

// Path returns the configuration directory.
func (c *Config) Path() string {
	return c.ConfigDir
}

// DBPath returns the location of the vault database.
func (c *Config) DBPath() string {
	return filepath.Join(c.ConfigDir, dbFileName)
}

// IconsPath returns the location of a group icon. Only the base name of
// name is used, so icons cannot point outside the icons directory.
func (c *Config) IconsPath(name string) string {
	return filepath.Join(c.ConfigDir, iconsDir, filepath.Base(name))
}

// CheckConfigurationDir creates the configuration and icons directories
// if they are missing.
func (c *Config) CheckConfigurationDir() error {
	dir := filepath.Join(c.ConfigDir, iconsDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create configuration dir: %w", err)
	}
	return nil
}
