// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/seedvault/seedvault/internal/license"
)

const envPrefix = "SEEDVAULT__"

type Config struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	BaseURL        string `mapstructure:"baseUrl"`
	LogLevel       string `mapstructure:"logLevel"`
	LogPath        string `mapstructure:"logPath"`
	DataDir        string `mapstructure:"dataDir"`
	MetricsEnabled bool   `mapstructure:"metricsEnabled"`

	// LicenseCodec selects the blob transform: "xor" (compatible with
	// existing .license files) or "sealed".
	LicenseCodec string `mapstructure:"licenseCodec"`

	// AnchorPath overrides the anchor file location. Empty means resolve
	// from the executable's deployment tree.
	AnchorPath string `mapstructure:"anchorPath"`
}

type AppConfig struct {
	Config *Config
	viper  *viper.Viper

	configDir string
}

// New loads configuration from the given directory or file path, falling
// back to the OS-specific default location. A missing config file is
// created with defaults.
func New(configPath string) (*AppConfig, error) {
	c := &AppConfig{
		viper:  viper.New(),
		Config: &Config{},
	}

	c.defaults()

	if err := c.load(configPath); err != nil {
		return nil, err
	}

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	c.applyEnvOverrides()

	return c, nil
}

func (c *AppConfig) defaults() {
	c.viper.SetDefault("host", "localhost")
	c.viper.SetDefault("port", 7575)
	c.viper.SetDefault("baseUrl", "")
	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("dataDir", "")
	c.viper.SetDefault("metricsEnabled", false)
	c.viper.SetDefault("licenseCodec", "xor")
	c.viper.SetDefault("anchorPath", "")
}

// resolveConfigPath accepts a directory, a .toml file path, or an existing
// file and returns the config file to use.
func (c *AppConfig) resolveConfigPath(configPath string) string {
	switch {
	case configPath == "":
		return filepath.Join(GetDefaultConfigDir(), "config.toml")
	case strings.HasSuffix(strings.ToLower(configPath), ".toml"):
		return configPath
	default:
		if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
			return configPath
		}
		return filepath.Join(configPath, "config.toml")
	}
}

func (c *AppConfig) load(configPath string) error {
	file := c.resolveConfigPath(configPath)
	c.configDir = filepath.Dir(file)

	if _, err := os.Stat(file); os.IsNotExist(err) {
		if err := WriteDefaultConfig(file); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	}

	c.viper.SetConfigFile(file)
	if err := c.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// applyEnvOverrides maps SEEDVAULT__* environment variables onto config
// fields. Env always wins over the file.
func (c *AppConfig) applyEnvOverrides() {
	if v := os.Getenv(envPrefix + "HOST"); v != "" {
		c.Config.Host = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Config.LogLevel = v
	}
	if v := os.Getenv(envPrefix + "LOG_PATH"); v != "" {
		c.Config.LogPath = v
	}
	if v := os.Getenv(envPrefix + "DATA_DIR"); v != "" {
		c.Config.DataDir = v
	}
	if v := os.Getenv(envPrefix + "ANCHOR_PATH"); v != "" {
		c.Config.AnchorPath = v
	}
}

// GetDefaultConfigDir returns the OS-specific config directory:
// ~/.config/seedvault on Linux/macOS, %APPDATA%\seedvault on Windows.
func GetDefaultConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "seedvault")
		}
	}
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "seedvault")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "seedvault")
}

// WriteDefaultConfig creates a config file with commented defaults. An
// existing file is left untouched.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := `# seedvault configuration

# Hostname or IP to bind to
host = "localhost"

# Port to listen on
port = 7575

# Base URL when serving behind a reverse proxy subfolder
#baseUrl = "/seedvault/"

# Log level: TRACE, DEBUG, INFO, WARN, ERROR
logLevel = "INFO"

# Log file path (empty logs to stderr)
#logPath = "log/seedvault.log"

# Data directory for the database (default: next to this file)
#dataDir = ""

# Expose Prometheus metrics at /metrics
metricsEnabled = false

# License blob transform: "xor" or "sealed"
licenseCodec = "xor"

# Override the license anchor file location
#anchorPath = ""
`

	return os.WriteFile(path, []byte(content), 0644)
}

// SetDataDir overrides the data directory, e.g. from a CLI flag.
func (c *AppConfig) SetDataDir(dir string) {
	c.Config.DataDir = dir
}

// GetDatabasePath returns the sqlite database location: inside dataDir when
// set, otherwise next to the config file.
func (c *AppConfig) GetDatabasePath() string {
	if c.Config.DataDir != "" {
		return filepath.Join(c.Config.DataDir, "seedvault.db")
	}
	return filepath.Join(c.configDir, "seedvault.db")
}

// GetLicenseBlobPath returns the encrypted license blob location inside the
// per-user config directory.
func (c *AppConfig) GetLicenseBlobPath() string {
	return filepath.Join(c.configDir, license.BlobFileName)
}

// GetAnchorPath resolves the license anchor file: the configured override,
// or the default location in the deployment tree above the executable.
func (c *AppConfig) GetAnchorPath() (string, error) {
	if c.Config.AnchorPath != "" {
		return c.Config.AnchorPath, nil
	}
	return license.DefaultAnchorPath()
}

// ApplyLogConfig configures the global zerolog logger from config.
func (c *AppConfig) ApplyLogConfig() {
	level := zerolog.InfoLevel
	switch strings.ToUpper(c.Config.LogLevel) {
	case "TRACE":
		level = zerolog.TraceLevel
	case "DEBUG":
		level = zerolog.DebugLevel
	case "INFO":
		level = zerolog.InfoLevel
	case "WARN":
		level = zerolog.WarnLevel
	case "ERROR":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.Config.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.Config.LogPath), 0755); err != nil {
			log.Error().Err(err).Msg("Failed to create log directory, using stderr")
			return
		}
		f, err := os.OpenFile(c.Config.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open log file, using stderr")
			return
		}
		log.Logger = log.Output(f)
	}
}
