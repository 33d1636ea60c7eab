package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, CameraWebcam, cfg.Camera.Source)
	assert.Equal(t, uint(24), cfg.GetFPS())
	assert.Equal(t, 10*time.Second, cfg.Camera.StartTimeout)
	assert.Equal(t, LocationStatic, cfg.Location.Source)
	assert.Equal(t, 15*time.Second, cfg.Location.Timeout)
	assert.Equal(t, "accept", cfg.Target.RangePolicy)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "geocam.yaml", `
camera:
  source: file
  file_path: /tmp/clip.mp4
  fps: 12
location:
  source: gpsd
  timeout: 3s
target:
  default: "37.7749,-122.4194"
  range_policy: reject
`)

	t.Setenv("GEOCAM_LOCATION_GPSD_ADDR", "gps.local:2947")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, CameraFile, cfg.Camera.Source)
	assert.Equal(t, "/tmp/clip.mp4", cfg.Camera.FilePath)
	assert.Equal(t, uint(12), cfg.GetFPS())
	assert.Equal(t, LocationGPSD, cfg.Location.Source)
	assert.Equal(t, "gps.local:2947", cfg.Location.GPSDAddr)
	assert.Equal(t, 3*time.Second, cfg.Location.Timeout)
	assert.Equal(t, "37.7749,-122.4194", cfg.GetTarget())
	assert.Equal(t, "reject", cfg.Target.RangePolicy)
	assert.Equal(t, path, cfg.Path())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CameraWebcam, cfg.Camera.Source)
	assert.Equal(t, path, cfg.Path())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown camera source", func(c *Config) { c.Camera.Source = "youtube" }},
		{"file source without path", func(c *Config) { c.Camera.Source = CameraFile }},
		{"half size", func(c *Config) { c.Camera.Width = 640 }},
		{"zero start timeout", func(c *Config) { c.Camera.StartTimeout = 0 }},
		{"nmea without port", func(c *Config) { c.Location.Source = LocationNMEA }},
		{"unknown location source", func(c *Config) { c.Location.Source = "wifi" }},
		{"unknown range policy", func(c *Config) { c.Target.RangePolicy = "clamp" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetDevice("/dev/video2")
	cfg.Location.StaticLat = 1.5

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/video2", loaded.GetDevice())
	assert.Empty(t, loaded.GetTarget())
	assert.Equal(t, 1.5, loaded.Location.StaticLat)
	assert.Equal(t, cfg.Location.Timeout, loaded.Location.Timeout)
}

func TestSave_KeepsTargetSeed(t *testing.T) {
	path := writeFile(t, "geocam.yaml", `
target:
  default: "37.7749,-122.4194"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.SaveByDefault())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "37.7749,-122.4194", loaded.GetTarget())
}
