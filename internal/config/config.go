// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the TOML configuration with viper, applies
// CLIENTDESK__ environment overrides, writes a commented default config on
// first run and hot-reloads log settings when the file changes.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/clientdesk/clientdesk/internal/domain"
)

const (
	envPrefix         = "CLIENTDESK__"
	defaultConfigName = "config.toml"
	defaultDBName     = "clientdesk.db"
)

type AppConfig struct {
	Config *domain.Config

	viper      *viper.Viper
	configDir  string
	configPath string

	mu              sync.Mutex
	reloadCallbacks []func(*domain.Config)
}

// New loads configuration from configPath. When configPath is empty the
// default config directory is used, and a commented default config file is
// written on first run.
func New(configPath string) (*AppConfig, error) {
	c := &AppConfig{
		Config: &domain.Config{},
		viper:  viper.New(),
	}

	if err := c.load(configPath); err != nil {
		return nil, err
	}

	c.watchConfig()
	return c, nil
}

func (c *AppConfig) load(configPath string) error {
	c.setDefaults()

	c.viper.SetConfigType("toml")

	switch {
	case configPath == "":
		c.configDir = getDefaultConfigDir()
		c.configPath = filepath.Join(c.configDir, defaultConfigName)
	case strings.HasSuffix(configPath, ".toml"):
		c.configPath = configPath
		c.configDir = filepath.Dir(configPath)
	default:
		// A directory was given.
		c.configDir = configPath
		c.configPath = filepath.Join(configPath, defaultConfigName)
	}

	if err := os.MkdirAll(c.configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(c.configPath); os.IsNotExist(err) {
		if err := c.writeDefaultConfig(); err != nil {
			return err
		}
	}

	c.viper.SetConfigFile(c.configPath)
	if err := c.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	c.bindEnv()

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

func (c *AppConfig) setDefaults() {
	c.viper.SetDefault("host", "localhost")
	c.viper.SetDefault("port", 7171)
	c.viper.SetDefault("baseUrl", "/")
	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
	c.viper.SetDefault("metricsEnabled", false)
	c.viper.SetDefault("metricsHost", "127.0.0.1")
	c.viper.SetDefault("metricsPort", 9171)
	c.viper.SetDefault("expiryWarningDays", domain.DefaultExpiryWarningDays)
	c.viper.SetDefault("databaseEngine", "sqlite")
	c.viper.SetDefault("databaseSslMode", "disable")
}

// bindEnv maps CLIENTDESK__SNAKE_CASE variables onto config keys.
func (c *AppConfig) bindEnv() {
	for _, key := range []string{
		"host", "port", "baseUrl", "sessionSecret",
		"logLevel", "logPath", "logMaxSize", "logMaxBackups",
		"dataDir", "metricsEnabled", "metricsHost", "metricsPort",
		"metricsBasicAuthUsers",
		"expiryWarningDays",
		"databaseEngine", "databasePath", "databaseDsn",
		"databaseHost", "databasePort", "databaseUser", "databasePassword",
		"databaseName", "databaseSslMode",
	} {
		_ = c.viper.BindEnv(key, envPrefix+toEnvSuffix(key))
	}
}

// toEnvSuffix converts a camelCase key into SNAKE_CASE.
func toEnvSuffix(key string) string {
	var b strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// GetDatabasePath returns the configured sqlite path, defaulting to a
// database next to the config file.
func (c *AppConfig) GetDatabasePath() string {
	if c.Config.DatabasePath != "" {
		return c.Config.DatabasePath
	}
	return filepath.Join(c.configDir, defaultDBName)
}

// ConfigPath returns the path of the loaded config file.
func (c *AppConfig) ConfigPath() string {
	return c.configPath
}

// OnReload registers a callback run after the config file changes on disk.
func (c *AppConfig) OnReload(fn func(*domain.Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reloadCallbacks = append(c.reloadCallbacks, fn)
}

// watchConfig hot-reloads the log level when the file changes. Other settings
// require a restart.
func (c *AppConfig) watchConfig() {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Debug().Str("file", e.Name).Msg("config file changed")

		fresh := &domain.Config{}
		if err := c.viper.Unmarshal(fresh); err != nil {
			log.Error().Err(err).Msg("failed to reload config")
			return
		}

		c.mu.Lock()
		c.Config.LogLevel = fresh.LogLevel
		c.Config.LogPath = fresh.LogPath
		c.Config.ExpiryWarningDays = fresh.ExpiryWarningDays
		callbacks := make([]func(*domain.Config), len(c.reloadCallbacks))
		copy(callbacks, c.reloadCallbacks)
		c.mu.Unlock()

		setLogLevel(fresh.LogLevel)
		for _, fn := range callbacks {
			fn(fresh)
		}
	})
	c.viper.WatchConfig()
}

func setLogLevel(level string) {
	switch strings.ToUpper(level) {
	case "TRACE":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "INFO":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// getDefaultConfigDir honors XDG_CONFIG_HOME; a bare /config (the container
// convention) is used directly.
func getDefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if xdg == "/config" {
			return xdg
		}
		return filepath.Join(xdg, "clientdesk")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "clientdesk")
}

func (c *AppConfig) writeDefaultConfig() error {
	return WriteDefaultConfig(c.configPath)
}

// WriteDefaultConfig writes the commented default config file to path,
// generating a fresh session secret.
func WriteDefaultConfig(path string) error {
	secret, err := generateSessionSecret()
	if err != nil {
		return err
	}

	content := fmt.Sprintf(`# config.toml - Auto-generated on first run

# Hostname / IP
# Default: "localhost"
host = "localhost"

# Port
# Default: 7171
port = 7171

# Base url
# Set custom baseUrl eg /clientdesk/ to serve in subdirectory
# Default: "/"
#baseUrl = "/clientdesk/"

# Session secret
sessionSecret = "%s"

# Log file path
# If not defined, logs to stdout
# Optional
#logPath = "log/clientdesk.log"

# Log level
# Default: "INFO"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "INFO"

# Maximum log file size in megabytes before rotation
# Default: 50
#logMaxSize = 50

# Number of rotated log files to retain (0 keeps all)
# Default: 3
#logMaxBackups = 3

# License expiry warning window in days
# Default: 14
#expiryWarningDays = 14

# Database engine
# Default: "sqlite"
# Options: "sqlite", "postgres"
#databaseEngine = "sqlite"

# Sqlite database path
# Default: next to this config file
#databasePath = ""

# Prometheus metrics endpoint
# Default: false
#metricsEnabled = false
#metricsHost = "127.0.0.1"
#metricsPort = 9171
`, secret)

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	log.Info().Str("path", path).Msg("wrote default config file")
	return nil
}

func generateSessionSecret() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
