package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json output carries component", func(t *testing.T) {
		var buf bytes.Buffer
		log := ComponentLogger(NewLogger(&buf, Config{Level: "debug", Format: FormatJSON}), "cache")
		log.Debug().Str("operation", "get").Msg("hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "cache", line["component"])
		assert.Equal(t, "get", line["operation"])
		assert.Equal(t, "debug", line["level"])
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		log := NewLogger(&bytes.Buffer{}, Config{Level: "loud"})
		assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
	})
}

func TestNewLoggerWithPath(t *testing.T) {
	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "youseo.log")
		result := NewLoggerWithPath(Config{Level: "info", Output: OutputFile, File: path})
		defer result.Close()

		assert.True(t, result.UsingFile)
		assert.Equal(t, path, result.FilePath)
		assert.False(t, result.FallbackUsed)
	})

	t.Run("unwritable file falls back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "youseo.log")
		result := NewLoggerWithPath(Config{Output: OutputFile, File: path})
		assert.False(t, result.UsingFile)
		assert.True(t, result.FallbackUsed)
		assert.NotEmpty(t, result.FallbackReason)
		assert.NoError(t, result.Close())
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))

	id := GetOrGenerateTraceID(ctx)
	_, err := ulid.Parse(id)
	require.NoError(t, err)

	ctx = ContextWithTraceID(ctx, id)
	assert.Equal(t, id, TraceIDFromContext(ctx))
	assert.Equal(t, id, GetOrGenerateTraceID(ctx))
}
