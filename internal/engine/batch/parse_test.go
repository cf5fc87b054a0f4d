package batch_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/youseo/internal/engine"
	"github.com/rshade/youseo/internal/engine/batch"
)

func raws(in []batch.Input) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = v.Raw
	}
	return out
}

func TestParseInputs_SkipsBlankAndCommentLines(t *testing.T) {
	text := strings.Join([]string{
		"# my videos",
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"",
		"https://youtu.be/bbbbbbbbbbb",
		"   ",
		"ccccccccccc",
		"https://www.youtube.com/shorts/ddddddddddd",
		"not a url at all",
	}, "\n")

	in, err := batch.ParseInputs(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, in, 5)
	assert.Equal(t, "not a url at all", in[4].Raw, "malformed lines still become items")
	assert.Equal(t, 2, in[0].Line)
	assert.Equal(t, 8, in[4].Line)
}

func TestParseInputs_OverlongLineIsOneItem(t *testing.T) {
	long := strings.Repeat("x", 70*1024)
	text := "dQw4w9WgXcQ\n" + long + "\n9bZkp7q19f0\n"

	in, err := batch.ParseInputs(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, in, 3)

	assert.Equal(t, "dQw4w9WgXcQ", in[0].Raw)
	assert.NoError(t, in[0].Err)

	assert.Len(t, in[1].Raw, batch.MaxInputLength)
	assert.Equal(t, 2, in[1].Line)
	require.ErrorIs(t, in[1].Err, batch.ErrInputTooLong)
	assert.Equal(t, engine.KindMalformed, engine.KindOf(in[1].Err))

	assert.Equal(t, "9bZkp7q19f0", in[2].Raw)
	assert.Equal(t, 3, in[2].Line)
	assert.NoError(t, in[2].Err)
}

func TestParseInputs_LastLineWithoutNewline(t *testing.T) {
	in, err := batch.ParseInputs(strings.NewReader("aaaaaaaaaaa\r\nbbbbbbbbbbb"))
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}, raws(in))
}

func TestParseCSVInputs(t *testing.T) {
	t.Run("header skipped", func(t *testing.T) {
		in, err := batch.ParseCSVInputs(strings.NewReader(
			"url,note\nhttps://youtu.be/aaaaaaaaaaa,first\n,empty\nhttps://youtu.be/bbbbbbbbbbb\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"https://youtu.be/aaaaaaaaaaa", "https://youtu.be/bbbbbbbbbbb"}, raws(in))
		assert.Equal(t, 2, in[0].Line)
	})

	t.Run("no header", func(t *testing.T) {
		in, err := batch.ParseCSVInputs(strings.NewReader("https://youtu.be/aaaaaaaaaaa\nbbbbbbbbbbb\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"https://youtu.be/aaaaaaaaaaa", "bbbbbbbbbbb"}, raws(in))
	})

	t.Run("bare id in first row is data", func(t *testing.T) {
		in, err := batch.ParseCSVInputs(strings.NewReader("dQw4w9WgXcQ\n9bZkp7q19f0\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"dQw4w9WgXcQ", "9bZkp7q19f0"}, raws(in))
		assert.Equal(t, 1, in[0].Line)
	})
}

func TestReadInputFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "videos.txt")
	require.NoError(t, os.WriteFile(txt, []byte("# c\naaaaaaaaaaa\n\nbbbbbbbbbbb\n"), 0o600))
	in, err := batch.ReadInputFile(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}, raws(in))

	csvPath := filepath.Join(dir, "videos.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte("video\nhttps://youtu.be/aaaaaaaaaaa\n"), 0o600))
	in, err = batch.ReadInputFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://youtu.be/aaaaaaaaaaa"}, raws(in))

	_, err = batch.ReadInputFile(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestInputsFromArgs(t *testing.T) {
	in := batch.InputsFromArgs([]string{"a", " ", "b"})
	assert.Equal(t, []string{"a", "b"}, raws(in))
	assert.Zero(t, in[0].Line)
}
