package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	orig := version
	t.Cleanup(func() { version = orig })

	version = "v1.4.0"
	assert.Equal(t, "1.4.0", GetVersion())
	assert.False(t, IsDevelopment())

	version = "1.5.0-rc.1"
	assert.Equal(t, "1.5.0-rc.1", GetVersion())
	assert.True(t, IsDevelopment())

	version = "not-a-version"
	assert.Equal(t, "not-a-version", GetVersion())
	assert.True(t, IsDevelopment())
}
