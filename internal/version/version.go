// Package version reports build information set at link time:
//
//	go build -ldflags "-X github.com/HerbHall/plcbridge/internal/version.Version=1.2.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags. "dev" marks a local build.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Short returns the version string.
func Short() string {
	return Version
}

// Info returns a one-line description of the build.
func Info() string {
	commit := GitCommit
	if commit == "unknown" {
		commit = vcsRevision()
	}
	return fmt.Sprintf("plcbridge %s (commit %s, built %s, %s %s/%s)",
		Version, commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return "unknown"
}
