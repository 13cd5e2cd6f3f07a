package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:4723", cfg.BackendURL)
	assert.Equal(t, 30000, cfg.Timeout)
	assert.True(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetScreenshots())
	assert.False(t, cfg.Bulk.GetParallel())
	assert.Equal(t, 5, cfg.Bulk.MaxConcurrent)
	assert.True(t, cfg.IsDefault())
}

func TestGetters_NilDefaults(t *testing.T) {
	cfg := &Config{}

	assert.True(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetScreenshots())
	assert.False(t, cfg.GetVerbose())
	assert.False(t, cfg.GetNoColor())
	assert.False(t, cfg.Bulk.GetParallel())
	assert.False(t, cfg.Bulk.GetStopOnError())
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".hitflow.json")
	content := `{
  "backendUrl": "http://backend:9000",
  "deviceId": "emulator-5554",
  "retries": 2,
  "bulk": {"parallel": true, "maxConcurrent": 3},
  "environments": {"staging": {"baseUrl": "https://staging.test"}}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.BackendURL)
	assert.Equal(t, "emulator-5554", cfg.DeviceID)
	assert.Equal(t, 2, cfg.Retries)
	assert.True(t, cfg.Bulk.GetParallel())
	assert.Equal(t, 3, cfg.Bulk.MaxConcurrent)
	assert.Equal(t, "https://staging.test", cfg.Environments["staging"]["baseUrl"])
	// untouched fields keep their defaults
	assert.Equal(t, 30000, cfg.Timeout)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.IsDefault())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hitflow.yaml")
	content := `
backendUrl: http://yaml-backend:4723
timeout: 5000
screenshots: false
logger:
  level: debug
  format: json
  file: logs/hitflow.log
bulk:
  stopOnError: true
  rateLimit: 2.5
environments:
  dev:
    userId: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://yaml-backend:4723", cfg.BackendURL)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.False(t, cfg.GetScreenshots())
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "logs/hitflow.log", cfg.Logger.File)
	assert.Equal(t, 10, cfg.Logger.MaxSize)
	assert.True(t, cfg.Bulk.GetStopOnError())
	assert.Equal(t, 2.5, cfg.Bulk.RateLimit)
	assert.Equal(t, 7, cfg.Environments["dev"]["userId"])
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".hitflow.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("no config file returns defaults", func(t *testing.T) {
		cfg, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.True(t, cfg.IsDefault())
	})

	t.Run("finds yaml config", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitflow.yaml"), []byte("deviceId: pixel-7\n"), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "pixel-7", cfg.DeviceID)
	})

	t.Run("json wins over yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitflow.json"), []byte(`{"deviceId":"from-json"}`), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitflow.yaml"), []byte("deviceId: from-yaml\n"), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "from-json", cfg.DeviceID)
	})
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"Accept": "application/json"}
	base.Environments = map[string]map[string]any{"dev": {"a": 1}}

	other := &Config{
		DeviceID:     "device-2",
		Retries:      3,
		NoColor:      BoolPtr(true),
		Headers:      map[string]string{"X-Trace": "1"},
		Environments: map[string]map[string]any{"prod": {"b": 2}},
		Bulk:         BulkConfig{Parallel: BoolPtr(true), Delay: 250},
		Logger:       LoggerConfig{Level: "warn"},
	}

	merged := base.Merge(other)

	assert.Equal(t, "device-2", merged.DeviceID)
	assert.Equal(t, 3, merged.Retries)
	assert.True(t, merged.GetNoColor())
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Trace": "1"}, merged.Headers)
	assert.Len(t, merged.Environments, 2)
	assert.True(t, merged.Bulk.GetParallel())
	assert.Equal(t, 250, merged.Bulk.Delay)
	assert.Equal(t, 5, merged.Bulk.MaxConcurrent)
	assert.Equal(t, "warn", merged.Logger.Level)
	assert.Equal(t, "console", merged.Logger.Format)

	// base is not modified
	assert.Equal(t, map[string]string{"Accept": "application/json"}, base.Headers)
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DeviceID = "saved-device"

	for _, name := range []string{"out.json", "out.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveConfig(path))

		loaded, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "saved-device", loaded.DeviceID, name)
	}
}
