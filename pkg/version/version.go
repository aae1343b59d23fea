// Package version exposes the winbridge build version.
package version

// Version is the current version of winbridge.
// It is overridden at build time via -ldflags for release builds.
var Version = "dev"

// GetVersion returns the version string of the running binary.
func GetVersion() string {
	return Version
}
