package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release tag, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/sitebuilder/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Resolved returns Version, falling back to the module version recorded by
// `go install` when no ldflags were given.
func Resolved() string {
	if Version != "unknown" && Version != "" {
		return Version
	}
	if bi, ok := readBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// String renders the line printed by --version.
func String() string {
	return fmt.Sprintf("sitebuilder %s (commit %s, built %s)", Resolved(), GitCommit, BuildTime)
}
