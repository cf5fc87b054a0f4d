package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/youseo/internal/cli"
	"github.com/rshade/youseo/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		assert.NotNil(t, root)
		assert.Equal(t, "youseo", root.Use)
	})
}

func TestDisplayVersion(t *testing.T) {
	got := displayVersion()
	assert.Contains(t, got, version.GetVersion())
	assert.Equal(t, version.IsDevelopment(), strings.HasSuffix(got, " (development build)"))
}

func TestRun_Help(t *testing.T) {
	assert.Equal(t, 0, run([]string{"--help"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	t.Setenv("YOUSEO_HOME", t.TempDir())
	assert.Equal(t, 1, run([]string{"no-such-command"}))
}

func TestExtractExitCode(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantExitCode int
	}{
		{name: "nil error returns 0", err: nil, wantExitCode: 0},
		{name: "failed videos return 2", err: &cli.BatchExitError{ExitCode: 2, Failed: 1, Total: 2}, wantExitCode: 2},
		{
			name:         "wrapped BatchExitError",
			err:          errors.Join(errors.New("outer"), &cli.BatchExitError{ExitCode: 2}),
			wantExitCode: 2,
		},
		{name: "other errors return 1", err: errors.New("generic error"), wantExitCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantExitCode, extractExitCode(tt.err))
		})
	}
}
