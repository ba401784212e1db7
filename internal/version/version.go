// Package version holds build metadata, overridden at link time with
// -ldflags "-X github.com/banshee-data/chartlab/internal/version.Version=...".
package version

var (
	// Version is the release tag of the chartlab binary.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
