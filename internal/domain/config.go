// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// Config holds the runtime configuration unmarshaled from the config file
// and environment overrides.
type Config struct {
	Version string

	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"baseUrl"`

	LogLevel      string `mapstructure:"logLevel"`
	LogPath       string `mapstructure:"logPath"`
	LogMaxSize    int    `mapstructure:"logMaxSize"`
	LogMaxBackups int    `mapstructure:"logMaxBackups"`

	DataDir string `mapstructure:"dataDir"`

	MetricsEnabled bool   `mapstructure:"metricsEnabled"`
	MetricsHost    string `mapstructure:"metricsHost"`
	MetricsPort    int    `mapstructure:"metricsPort"`

	// SearchURLTemplate is the tracker aggregator endpoint with a single
	// {query} placeholder. The query is URL-escaped before substitution.
	SearchURLTemplate string `mapstructure:"searchUrlTemplate"`

	// MagnetTrackers are appended as tr= parameters, in order, to magnet
	// URIs reconstructed from an info hash.
	MagnetTrackers []string `mapstructure:"magnetTrackers"`

	SearchTimeout int `mapstructure:"searchTimeout"` // seconds
	SearchWorkers int `mapstructure:"searchWorkers"`

	DhtFallbackEnabled bool `mapstructure:"dhtFallbackEnabled"`
	DhtTimeout         int  `mapstructure:"dhtTimeout"` // seconds
}
