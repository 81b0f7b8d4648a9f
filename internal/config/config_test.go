package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsZeroValue(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoad_EmptyPathReturnsZeroValue(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoad_ParsesTimingAndMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	body := []byte(`
endpoint: https://api.cloudkitchens.com/interview/challenge
timing:
  rate_micros: 500000
  min_pickup_micros: 4000000
  max_pickup_micros: 8000000
metrics:
  addr: ":9090"
`)
	require.NoError(t, os.WriteFile(path, body, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.cloudkitchens.com/interview/challenge", cfg.Endpoint)
	assert.Equal(t, int64(500000), cfg.Timing.RateMicros)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoad_MalformedYAMLIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
