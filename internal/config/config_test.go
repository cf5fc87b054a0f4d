package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/youseo/internal/config"
	"github.com/rshade/youseo/internal/engine/cache"
	"github.com/rshade/youseo/internal/logging"
)

// isolate points every config location at a temporary directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	for _, key := range []string{
		cache.EnvCacheEnabled, cache.EnvCacheDir, cache.EnvCacheBackend, cache.EnvTTLSeconds,
		config.EnvLogLevel, config.EnvAPIKey,
	} {
		t.Setenv(key, "")
	}
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestNew_Defaults(t *testing.T) {
	home := isolate(t)
	cfg := config.New()

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, cache.BackendFile, cfg.Cache.Backend)
	assert.Equal(t, filepath.Join(home, "cache"), cfg.Cache.Directory)
	assert.Equal(t, config.TTL(3600), cfg.Cache.TTL.Metadata)
	assert.Equal(t, config.TTL(7200), cfg.Cache.TTL.Comments)
	assert.Equal(t, config.TTL(21600), cfg.Cache.TTL.Search)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Batch.ItemTimeout.Std())
	assert.Equal(t, config.FormatTable, cfg.Output.DefaultFormat)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	home := isolate(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.Path())
	assert.Equal(t, config.New().Batch, cfg.Batch)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	isolate(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, `
cache:
  backend: sqlite
  ttl:
    metadata: 30m
    search: 600
  auto_sweep: true
batch:
  workers: 8
  item_timeout: 45s
youtube:
  api_key: from-file
output:
  default_format: csv
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cache.BackendSQLite, cfg.Cache.Backend)
	assert.True(t, cfg.Cache.AutoSweep)
	assert.Equal(t, config.TTL(1800), cfg.Cache.TTL.Metadata)
	assert.Equal(t, config.TTL(600), cfg.Cache.TTL.Search)
	assert.Equal(t, config.TTL(7200), cfg.Cache.TTL.Comments, "unset keys keep their defaults")
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 45*time.Second, cfg.Batch.ItemTimeout.Std())
	assert.Equal(t, 100, cfg.Batch.MaxComments)
	assert.Equal(t, "from-file", cfg.YouTube.APIKey)
	assert.Equal(t, config.FormatCSV, cfg.Output.DefaultFormat)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "youtube:\n  api_key: from-file\nlogging:\n  level: warn\n")
	t.Setenv(config.EnvAPIKey, "from-env")
	t.Setenv(config.EnvLogLevel, "debug")
	t.Setenv(cache.EnvCacheEnabled, "false")
	t.Setenv(cache.EnvCacheDir, "/tmp/elsewhere")
	t.Setenv(cache.EnvTTLSeconds, "120")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.YouTube.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "/tmp/elsewhere", cfg.Cache.Directory)

	ttl := cfg.StoreConfig().TTL
	for _, category := range cache.DefaultCategories {
		assert.Equal(t, 120, ttl.For(category))
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "ttl below minimum", body: "cache:\n  ttl:\n    metadata: 5\n"},
		{name: "ttl not a duration", body: "cache:\n  ttl:\n    search: soon\n"},
		{name: "bad item timeout", body: "batch:\n  item_timeout: later\n"},
		{name: "unknown backend", body: "cache:\n  backend: redis\n"},
		{name: "too many workers", body: "batch:\n  workers: 100\n"},
		{name: "zero workers", body: "batch:\n  workers: 0\n"},
		{name: "unknown format", body: "output:\n  default_format: xml\n"},
		{name: "unknown log level", body: "logging:\n  level: loud\n"},
		{name: "malformed yaml", body: "cache: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			_, err := config.Load(writeConfig(t, home, tt.body))
			require.Error(t, err)
		})
	}
}

func TestValidate_WrapsErrInvalidConfig(t *testing.T) {
	isolate(t)
	cfg := config.New()
	cfg.Batch.Workers = -1
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)

	cfg = config.New()
	cfg.Cache.Directory = ""
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)

	cfg.Cache.Enabled = false
	require.NoError(t, cfg.Validate())
}

func TestSaveThenLoad(t *testing.T) {
	home := isolate(t)
	cfg := config.New()
	cfg.Batch.Workers = 2
	cfg.Cache.TTL.Search = 900
	cfg.YouTube.QuotaCooldown = config.Duration(time.Hour)

	path := filepath.Join(home, "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Batch.Workers)
	assert.Equal(t, config.TTL(900), loaded.Cache.TTL.Search)
	assert.Equal(t, time.Hour, loaded.YouTube.QuotaCooldown.Std())
}

func TestStoreConfig(t *testing.T) {
	isolate(t)
	cfg := config.New()
	cfg.Cache.TTL.Comments = 0

	sc := cfg.StoreConfig()
	assert.True(t, sc.Enabled)
	assert.Equal(t, cfg.Cache.Directory, sc.Directory)
	assert.Equal(t, 3600, sc.TTL.For(cache.CategoryComments), "zero falls back to the default TTL")
	assert.Equal(t, 21600, sc.TTL.For(cache.CategorySearch))
}

func TestToLoggingConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "debug", Format: "json"}
	got := lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputStderr, got.Output)
	assert.Equal(t, "debug", got.Level)

	lc.File = filepath.Join(t.TempDir(), "logs", "youseo.log")
	got = lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputFile, got.Output)
	assert.Equal(t, lc.File, got.File)

	require.NoError(t, lc.EnsureLogDir())
	assert.DirExists(t, filepath.Dir(lc.File))
}
