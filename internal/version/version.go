// Package version reports what build of pductl is running.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Version and Commit identify the running build. Release builds inject them
// with ldflags:
//
//	go build -ldflags "-X github.com/ipdu/pductl/internal/version.Version=v1.2.0 \
//	                   -X github.com/ipdu/pductl/internal/version.Commit=$(git rev-parse --short HEAD)"
//
// Builds from a git checkout fall back to the VCS stamp Go embeds in the
// binary; anything else reports a dev version with a timestamp.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo()
	}

	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills Version and Commit from the VCS settings in the
// binary's build info, when present.
func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	var revision, modified, stamp string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		case "vcs.time":
			stamp = setting.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = shortHash(revision)
		if modified == "true" {
			Commit += "-dirty"
		}
	}

	// Build info carries no tags, so the commit date is the best available
	// version for an untagged build
	if Version == "" && stamp != "" {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

func shortHash(revision string) string {
	if len(revision) > 7 {
		return revision[:7]
	}
	return revision
}

// Full returns the version and commit the way 'pductl version' prints them.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
