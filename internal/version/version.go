package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// develVersion marks a build without an injected version.
const develVersion = "devel"

var (
	// Version is the semantic version of the build, injected through -ldflags.
	Version = develVersion
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns the semantic version. Builds without an injected version
// report the module version recorded by the Go toolchain, if any.
func Short() string {
	if Version != develVersion {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return Version
}

// Full returns a human-readable version string with commit, build time and Go version.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s, go: %s", Short(), Commit, BuildTime, runtime.Version())
}
