// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "strconv"

// Config represents the application configuration.
type Config struct {
	Version string

	Host          string `mapstructure:"host"`
	BaseURL       string `mapstructure:"baseUrl"`
	SessionSecret string `mapstructure:"sessionSecret"`
	LogLevel      string `mapstructure:"logLevel"`
	LogPath       string `mapstructure:"logPath"`
	DataDir       string `mapstructure:"dataDir"`
	DBPath        string `mapstructure:"dbPath"`
	MetricsHost   string `mapstructure:"metricsHost"`

	Port          int `mapstructure:"port"`
	LogMaxSize    int `mapstructure:"logMaxSize"`
	LogMaxBackups int `mapstructure:"logMaxBackups"`
	MetricsPort   int `mapstructure:"metricsPort"`

	// DefaultRequestIntervalMillis is the fallback rate-limit sleep used by
	// ReseedService.Execute for sites without a rate_limit_rpm configured.
	DefaultRequestIntervalMillis int `mapstructure:"requestIntervalMs"`

	MetricsEnabled bool `mapstructure:"metricsEnabled"`
}

// Defaults returns a Config populated with the documented defaults.
func Defaults() *Config {
	return &Config{
		Host:                         "0.0.0.0",
		Port:                         7474,
		LogLevel:                     "info",
		DataDir:                      "./data",
		DefaultRequestIntervalMillis: 500,
	}
}

// ApplyEnvOverrides applies the GRAFT_* environment variables documented
// in spec.md section 6, with GRAFT_DB_PATH taking precedence over the
// path derived from GRAFT_DATA_DIR.
func (c *Config) ApplyEnvOverrides(lookup func(string) (string, bool)) {
	if v, ok := lookup("GRAFT_HOST"); ok && v != "" {
		c.Host = v
	}
	if v, ok := lookup("GRAFT_PORT"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v, ok := lookup("GRAFT_DATA_DIR"); ok && v != "" {
		c.DataDir = v
		c.DBPath = v + "/graft.db"
	}
	if v, ok := lookup("GRAFT_DB_PATH"); ok && v != "" {
		c.DBPath = v
	}
}
