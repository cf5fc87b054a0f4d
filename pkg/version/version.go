// Package version exposes the build version of the youseo binary.
package version

import (
	"github.com/Masterminds/semver/v3"
)

// version is set at build time via -ldflags "-X github.com/rshade/youseo/pkg/version.version=v1.2.3".
//
//nolint:gochecknoglobals // Set by the linker.
var version = "0.1.0-dev"

// GetVersion returns the build version, normalized to semver when possible.
func GetVersion() string {
	v, err := semver.NewVersion(version)
	if err != nil {
		return version
	}
	return v.String()
}

// IsDevelopment reports whether the binary is a pre-release build.
func IsDevelopment() bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return true
	}
	return v.Prerelease() != ""
}
