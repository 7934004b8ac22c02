// Package version holds the build metadata printed by sitenav --version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/sitenav/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line. When no version was linked in, the module
// version and VCS revision recorded by the Go toolchain are used instead.
func String() string {
	return format(Version, GitCommit, BuildTime, readBuildInfo)
}

func readBuildInfo() (*debug.BuildInfo, bool) { return debug.ReadBuildInfo() }

func format(v, commit, built string, info func() (*debug.BuildInfo, bool)) string {
	if v == "unknown" {
		if bi, ok := info(); ok {
			if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
				v = bi.Main.Version
			}
			for _, s := range bi.Settings {
				switch {
				case s.Key == "vcs.revision" && commit == "unknown":
					commit = s.Value
				case s.Key == "vcs.time" && built == "unknown":
					built = s.Value
				}
			}
		}
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return fmt.Sprintf("%s (commit %s, built %s)", v, commit, built)
}
