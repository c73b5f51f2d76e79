package version

import "fmt"

// Set with -ldflags "-X github.com/oshokin/wherering/internal/version.Version=...".
var (
	// Version is the semantic version of the build.
	Version = "0.1.0-dev"
	// Commit is the short git SHA, "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version with commit and build time.
func Full() string {
	return fmt.Sprintf("wherering %s (commit %s, built %s)", Version, Commit, BuildTime)
}
