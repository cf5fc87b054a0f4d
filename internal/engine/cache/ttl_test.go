package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"3600", 3600, false},
		{" 120 ", 120, false},
		{"1h", 3600, false},
		{"90m", 5400, false},
		{"59", 0, true},
		{"30s", 0, true},
		{"8d", 0, true},
		{"999999", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTTL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTTLConfig(t *testing.T) {
	cfg := DefaultTTLConfig()
	assert.Equal(t, DefaultMetadataTTLSeconds, cfg.For(CategoryMetadata))
	assert.Equal(t, DefaultCommentsTTLSeconds, cfg.For(CategoryComments))
	assert.Equal(t, DefaultSearchTTLSeconds, cfg.For(CategorySearch))
	assert.Equal(t, DefaultTTLSeconds, cfg.For(Category("channels")))
	require.NoError(t, cfg.Validate())

	overridden := cfg.WithOverride(600)
	assert.Equal(t, 600, overridden.For(CategorySearch))
	assert.Equal(t, 600, overridden.For(Category("channels")))
	assert.Equal(t, DefaultSearchTTLSeconds, cfg.For(CategorySearch), "override must not mutate the original")

	bad := TTLConfig{PerCategory: map[Category]int{CategoryComments: 5}}
	require.ErrorIs(t, bad.Validate(), ErrInvalidTTL)

	assert.Equal(t, DefaultTTLSeconds, TTLConfig{}.For(CategoryMetadata))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvTTLSeconds, "2h")
	ttl, ok := GetTTLFromEnv()
	require.True(t, ok)
	assert.Equal(t, 7200, ttl)

	t.Setenv(EnvTTLSeconds, "nope")
	_, ok = GetTTLFromEnv()
	assert.False(t, ok)

	t.Setenv(EnvCacheEnabled, "false")
	enabled, ok := GetCacheEnabledFromEnv()
	require.True(t, ok)
	assert.False(t, enabled)

	t.Setenv(EnvCacheEnabled, "maybe")
	_, ok = GetCacheEnabledFromEnv()
	assert.False(t, ok)

	t.Setenv(EnvCacheDir, "/tmp/youseo")
	assert.Equal(t, "/tmp/youseo", GetCacheDirFromEnv())

	t.Setenv(EnvCacheBackend, " SQLite ")
	assert.Equal(t, BackendSQLite, GetCacheBackendFromEnv())
}

func TestFormatTTL(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{-5, "0s"},
		{30, "30s"},
		{90, "1m30s"},
		{DefaultMetadataTTLSeconds, "1h"},
		{5400, "1h30m"},
		{DefaultSearchTTLSeconds, "6h"},
		{90061, "1d1h1m1s"},
		{MaxTTLSeconds, "7d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTTL(tt.seconds), "seconds=%d", tt.seconds)
	}
}
