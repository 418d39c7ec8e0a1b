// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

func TestDatabasePathResolution(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, tmpDir string) (configPath string, envDataDir string, expectedDBPath string)
	}{
		{
			name: "default_next_to_config",
			prepare: func(t *testing.T, tmpDir string) (string, string, string) {
				configPath := writeConfig(t, tmpDir, "host = \"localhost\"\nport = 7620\n")
				return configPath, "", filepath.Join(tmpDir, "magnetar.db")
			},
		},
		{
			name: "explicit_data_dir_in_config",
			prepare: func(t *testing.T, tmpDir string) (string, string, string) {
				dataDir := filepath.Join(tmpDir, "data")
				require.NoError(t, os.MkdirAll(dataDir, 0o755))
				configPath := writeConfig(t, tmpDir, fmt.Sprintf("host = \"localhost\"\nport = 7620\ndataDir = %q\n", dataDir))
				return configPath, "", filepath.Join(dataDir, "magnetar.db")
			},
		},
		{
			name: "env_var_override",
			prepare: func(t *testing.T, tmpDir string) (string, string, string) {
				configDataDir := filepath.Join(tmpDir, "config-data")
				envDataDir := filepath.Join(tmpDir, "env-data")
				require.NoError(t, os.MkdirAll(configDataDir, 0o755))
				require.NoError(t, os.MkdirAll(envDataDir, 0o755))
				configPath := writeConfig(t, tmpDir, fmt.Sprintf("host = \"localhost\"\nport = 7620\ndataDir = %q\n", configDataDir))
				return configPath, envDataDir, filepath.Join(envDataDir, "magnetar.db")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath, envValue, expectedDBPath := tt.prepare(t, tmpDir)
			if envValue != "" {
				t.Setenv(envPrefix+"DATA_DIR", envValue)
			}

			cfg, err := New(configPath)
			require.NoError(t, err)

			assert.Equal(t, filepath.Clean(expectedDBPath), filepath.Clean(cfg.GetDatabasePath()))
		})
	}
}

func TestDefaults(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "host = \"localhost\"\n")

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, 7620, cfg.Config.Port)
	assert.Equal(t, "/", cfg.Config.BaseURL)
	assert.Equal(t, DefaultSearchURL, cfg.Config.SearchURLTemplate)
	assert.Equal(t, DefaultMagnetTrackers, cfg.Config.MagnetTrackers)
	assert.Equal(t, 15, cfg.Config.SearchTimeout)
	assert.Equal(t, 3, cfg.Config.SearchWorkers)
	assert.False(t, cfg.Config.DhtFallbackEnabled)
	assert.Equal(t, 60, cfg.Config.DhtTimeout)
	assert.False(t, cfg.Config.MetricsEnabled)
	assert.Equal(t, 9620, cfg.Config.MetricsPort)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(envPrefix+"PORT", "9999")
	t.Setenv(envPrefix+"SEARCH_URL_TEMPLATE", "https://example.org/search?q={query}")
	t.Setenv(envPrefix+"DHT_FALLBACK_ENABLED", "true")
	t.Setenv(envPrefix+"SEARCH_WORKERS", "5")

	configPath := writeConfig(t, t.TempDir(), "host = \"localhost\"\nport = 7620\n")

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Config.Port)
	assert.Equal(t, "https://example.org/search?q={query}", cfg.Config.SearchURLTemplate)
	assert.True(t, cfg.Config.DhtFallbackEnabled)
	assert.Equal(t, 5, cfg.Config.SearchWorkers)
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	content := `host = "0.0.0.0"
port = 8080
searchUrlTemplate = "https://mirror.example/q.php?q={query}"
searchTimeout = 30
dhtFallbackEnabled = true
magnetTrackers = ["udp://only.example:1337/announce"]
`
	configPath := writeConfig(t, t.TempDir(), content)

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Config.Host)
	assert.Equal(t, 8080, cfg.Config.Port)
	assert.Equal(t, "https://mirror.example/q.php?q={query}", cfg.Config.SearchURLTemplate)
	assert.Equal(t, 30, cfg.Config.SearchTimeout)
	assert.True(t, cfg.Config.DhtFallbackEnabled)
	assert.Equal(t, []string{"udp://only.example:1337/announce"}, cfg.Config.MagnetTrackers)
}

func TestWriteDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, WriteDefaultConfig(configPath))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "port = 7620")
	assert.Contains(t, string(content), "#searchUrlTemplate")
	assert.Contains(t, string(content), "#dhtFallbackEnabled")

	// The generated file must parse back with the documented defaults.
	cfg, err := New(configPath)
	require.NoError(t, err)
	assert.Equal(t, 7620, cfg.Config.Port)
	assert.Equal(t, DefaultSearchURL, cfg.Config.SearchURLTemplate)
}

func TestIsDevBuild(t *testing.T) {
	assert.True(t, isDevBuild(""))
	assert.True(t, isDevBuild("dev"))
	assert.True(t, isDevBuild("v1.2.3-dev"))
	assert.False(t, isDevBuild("v1.2.3"))
}
