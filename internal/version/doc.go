// Package version holds the WhereRing build metadata injected through
// ldflags and the `version` subcommand shared by both binaries.
package version
