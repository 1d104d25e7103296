// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"strings"
)

// Config represents the application configuration
type Config struct {
	Version       string
	Host          string `toml:"host" mapstructure:"host"`
	Port          int    `toml:"port" mapstructure:"port"`
	BaseURL       string `toml:"baseUrl" mapstructure:"baseUrl"`
	SessionSecret string `toml:"sessionSecret" mapstructure:"sessionSecret"`
	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir       string `toml:"dataDir" mapstructure:"dataDir"`

	MetricsEnabled        bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost           string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort           int    `toml:"metricsPort" mapstructure:"metricsPort"`
	MetricsBasicAuthUsers string `toml:"metricsBasicAuthUsers" mapstructure:"metricsBasicAuthUsers"`

	// ExpiryWarningDays is the default alerting window for licenses
	// approaching expiration.
	ExpiryWarningDays int `toml:"expiryWarningDays" mapstructure:"expiryWarningDays"`

	DatabaseEngine          string `toml:"databaseEngine" mapstructure:"databaseEngine"`
	DatabasePath            string `toml:"databasePath" mapstructure:"databasePath"`
	DatabaseDSN             string `toml:"databaseDsn" mapstructure:"databaseDsn"`
	DatabaseHost            string `toml:"databaseHost" mapstructure:"databaseHost"`
	DatabasePort            int    `toml:"databasePort" mapstructure:"databasePort"`
	DatabaseUser            string `toml:"databaseUser" mapstructure:"databaseUser"`
	DatabasePassword        string `toml:"databasePassword" mapstructure:"databasePassword"`
	DatabaseName            string `toml:"databaseName" mapstructure:"databaseName"`
	DatabaseSSLMode         string `toml:"databaseSslMode" mapstructure:"databaseSslMode"`
	DatabaseConnectTimeout  int    `toml:"databaseConnectTimeout" mapstructure:"databaseConnectTimeout"`
	DatabaseMaxOpenConns    int    `toml:"databaseMaxOpenConns" mapstructure:"databaseMaxOpenConns"`
	DatabaseMaxIdleConns    int    `toml:"databaseMaxIdleConns" mapstructure:"databaseMaxIdleConns"`
	DatabaseConnMaxLifetime int    `toml:"databaseConnMaxLifetime" mapstructure:"databaseConnMaxLifetime"`
}

// DefaultExpiryWarningDays applies when expiryWarningDays is unset or invalid.
const DefaultExpiryWarningDays = 14

func (c *Config) ExpiryWarningWindow() int {
	if c == nil || c.ExpiryWarningDays <= 0 {
		return DefaultExpiryWarningDays
	}
	return c.ExpiryWarningDays
}

// NormalizeBaseURL guarantees leading and trailing slashes.
func (c *Config) NormalizeBaseURL() string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" || base == "/" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.SessionSecret) == "" {
		return errors.New("sessionSecret is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}
