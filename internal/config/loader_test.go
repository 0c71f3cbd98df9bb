package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader("/path/to/config.json")
	assert.NotNil(t, loader)
	assert.Equal(t, "/path/to/config.json", loader.configPath)
	assert.Equal(t, "/path/to/config.json", loader.GetConfigPath())
}

func TestLoaderLoad(t *testing.T) {
	t.Run("defaults when file doesn't exist", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		cfg, err := NewLoader(filepath.Join(home, "nonexistent.json")).Load()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(home, ".scribe"), cfg.DataDir)
		assert.Equal(t, filepath.Join(home, ".scribe", "resources"), cfg.Store.Dir)
		assert.Equal(t, filepath.Join(home, ".scribe", "scribe.log"), cfg.Logging.File)
		assert.Equal(t, filepath.Join(home, ".scribe", "audit.log"), cfg.Logging.AuditFile)
		assert.Equal(t, "json", cfg.Store.Format)
		require.NoError(t, cfg.Validate())
	})

	t.Run("load config from file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "scribe.json")

		testConfig := `{
			"data_dir": "` + tmpDir + `",
			"store": {
				"format": "yaml",
				"load_concurrency": 2
			},
			"logging": {
				"level": "debug"
			}
		}`
		require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0644))

		cfg, err := NewLoader(configPath).Load()
		require.NoError(t, err)

		assert.Equal(t, tmpDir, cfg.DataDir)
		assert.Equal(t, "yaml", cfg.Store.Format)
		assert.Equal(t, 2, cfg.Store.LoadConcurrency)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, filepath.Join(tmpDir, "resources"), cfg.Store.Dir)
		assert.Equal(t, 250, cfg.Watch.DebounceMs, "unset keys keep defaults")
	})

	t.Run("explicit paths win", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "scribe.json")

		testConfig := `{
			"data_dir": "` + tmpDir + `",
			"store": {"dir": "/srv/notes"},
			"logging": {"file": "/var/log/scribe.log"}
		}`
		require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0644))

		cfg, err := NewLoader(configPath).Load()
		require.NoError(t, err)
		assert.Equal(t, "/srv/notes", cfg.Store.Dir)
		assert.Equal(t, "/var/log/scribe.log", cfg.Logging.File)
	})

	t.Run("environment overrides", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("SCRIBE_DATA_DIR", tmpDir)
		t.Setenv("SCRIBE_STORE_FORMAT", "yaml")
		t.Setenv("SCRIBE_LOGGING_CONSOLE", "true")

		cfg, err := NewLoader(filepath.Join(tmpDir, "missing.json")).Load()
		require.NoError(t, err)
		assert.Equal(t, tmpDir, cfg.DataDir)
		assert.Equal(t, "yaml", cfg.Store.Format)
		assert.True(t, cfg.Logging.Console)
		assert.Equal(t, filepath.Join(tmpDir, "resources"), cfg.Store.Dir)
	})

	t.Run("tilde expansion", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("SCRIBE_DATA_DIR", "~/notes")

		cfg, err := NewLoader(filepath.Join(home, "missing.json")).Load()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "notes"), cfg.DataDir)
		assert.Equal(t, filepath.Join(home, "notes", "resources"), cfg.Store.Dir)
	})

	t.Run("invalid json", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "scribe.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{"store": `), 0644))

		_, err := NewLoader(configPath).Load()
		assert.Error(t, err)
	})
}

func TestLoaderSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "scribe.json")
	loader := NewLoader(configPath)

	cfg := DefaultConfig()
	cfg.DataDir = tmpDir
	cfg.Store.Format = "yaml"
	cfg.Watch.VerifySchedule = "@hourly"
	cfg.Logging.Level = "warn"

	require.NoError(t, loader.Save(cfg))
	assert.FileExists(t, configPath)

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, tmpDir, loaded.DataDir)
	assert.Equal(t, "yaml", loaded.Store.Format)
	assert.Equal(t, "@hourly", loaded.Watch.VerifySchedule)
	assert.Equal(t, "warn", loaded.Logging.Level)

	// Saving again overwrites.
	cfg.Logging.Level = "error"
	require.NoError(t, loader.Save(cfg))
	loaded, err = loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "error", loaded.Logging.Level)
}

func TestGetConfigPathDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".scribe", "scribe.json"), NewLoader("").GetConfigPath())
}

func TestLoaderLoadWith(t *testing.T) {
	tmpDir := t.TempDir()
	override := filepath.Join(tmpDir, "elsewhere")

	cfg, err := NewLoader(filepath.Join(tmpDir, "missing.json")).LoadWith(func(c *Config) {
		c.DataDir = override
		c.Logging.Level = "debug"
	})
	require.NoError(t, err)

	assert.Equal(t, override, cfg.DataDir)
	assert.Equal(t, filepath.Join(override, "resources"), cfg.Store.Dir)
	assert.Equal(t, filepath.Join(override, "scribe.log"), cfg.Logging.File)
	assert.Equal(t, filepath.Join(override, "audit.log"), cfg.Logging.AuditFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
