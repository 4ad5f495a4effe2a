package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nvt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Cache.UrbanMaxAgeDays)
	assert.Equal(t, 30, cfg.Cache.SecondaryMaxAgeDays)
	assert.Equal(t, 30*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, time.Hour, cfg.Refresh.StaticThreshold)
	assert.Equal(t, "bordeaux", cfg.Urban.Network)
	assert.Equal(t, "Europe/Paris", cfg.Timezone)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
refresh:
  interval: 45s
urban:
  network: test-network
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, "test-network", cfg.Urban.Network)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Urban.BaseURL, cfg.Urban.BaseURL)
	assert.Equal(t, Default().Rail, cfg.Rail)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"bad url", "urban:\n  base_url: not-a-url\n"},
		{"zero cache age", "cache:\n  urban_max_age_days: 0\n"},
		{"short interval", "refresh:\n  interval: 100ms\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not a map"))
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	loc, err := Default().Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())

	cfg := Default()
	cfg.Timezone = "Mars/Olympus"
	_, err = cfg.Location()
	assert.Error(t, err)
}
