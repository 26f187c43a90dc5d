// Package config loads logsieve settings from YAML files and the environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	// Default values for commands
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// DefaultsConfig holds default values for the filtering commands.
type DefaultsConfig struct {
	ContextLines  int    `mapstructure:"context_lines"`
	Debounce      string `mapstructure:"debounce"`
	BatchInterval string `mapstructure:"batch_interval"`
	BatchMaxLines int    `mapstructure:"batch_max_lines"`
	PollInterval  string `mapstructure:"poll_interval"`

	// ProfilesFile points at the persisted filter profiles document.
	ProfilesFile string `mapstructure:"profiles_file"`
	// Profile names the profile applied when a command doesn't pick one.
	Profile string `mapstructure:"profile"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Format: "text",
		Defaults: DefaultsConfig{
			ContextLines:  0,
			Debounce:      "300ms",
			BatchInterval: "100ms",
			BatchMaxLines: 50,
			PollInterval:  "250ms",
		},
	}
}

// Load loads configuration from files and environment.
// Config file search order (highest precedence first):
//  1. ./.logsieve.yaml or ./.logsieve.yml
//  2. ~/.logsieve.yaml or ~/.logsieve.yml
//  3. $XDG_CONFIG_HOME/logsieve/config.yaml (or ~/.config/logsieve/config.yaml)
//  4. /etc/logsieve/config.yaml
func Load() (*Config, error) {
	cfg := Default()

	configFile := findConfigFile()
	if configFile != "" {
		v := viper.New()
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// findConfigFile searches for a config file in standard locations.
func findConfigFile() string {
	names := []string{".logsieve.yaml", ".logsieve.yml", "logsieve.yaml", "logsieve.yml"}

	home, homeErr := os.UserHomeDir()
	configDir, configDirErr := os.UserConfigDir()

	var searchPaths []string

	// Current directory
	for _, name := range names {
		searchPaths = append(searchPaths, name)
	}
	// Home directory
	if homeErr == nil {
		for _, name := range names {
			searchPaths = append(searchPaths, filepath.Join(home, name))
		}
	}
	// XDG config directory
	if configDirErr == nil {
		searchPaths = append(searchPaths,
			filepath.Join(configDir, "logsieve", "config.yaml"),
			filepath.Join(configDir, "logsieve", "config.yml"))
	}
	// System-wide
	searchPaths = append(searchPaths,
		"/etc/logsieve/config.yaml",
		"/etc/logsieve/config.yml")

	for _, path := range searchPaths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// applyEnvOverrides applies LOGSIEVE_* environment variables on top of file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOGSIEVE_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOGSIEVE_QUIET"); v == "1" || v == "true" {
		cfg.Quiet = true
	}
	if v := os.Getenv("LOGSIEVE_VERBOSE"); v == "1" || v == "true" {
		cfg.Verbose = true
	}
	if v := os.Getenv("LOGSIEVE_PROFILES_FILE"); v != "" {
		cfg.Defaults.ProfilesFile = v
	}
	if v := os.Getenv("LOGSIEVE_PROFILE"); v != "" {
		cfg.Defaults.Profile = v
	}
}
