// Package versions reports what build of the Datalayer CLI is running.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const unknownStr = "unknown"

// Set through -ldflags at release time. A plain `go build` leaves them at
// the defaults and GetVersionInfo falls back to the module's VCS stamp.
var (
	Version   = "dev"
	Commit    = unknownStr
	BuildDate = unknownStr
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo assembles the version report, filling gaps from the
// embedded build info when this is a development build.
func GetVersionInfo() VersionInfo {
	ver, commit, date := Version, Commit, BuildDate

	if strings.HasPrefix(ver, "dev") {
		vcsCommit, vcsTime := vcsStamp()
		if commit == unknownStr {
			commit = vcsCommit
		}
		if date == unknownStr {
			date = vcsTime
		}
	}

	if ver == "dev" {
		ver = manufacturedVersion(commit)
	}

	return VersionInfo{
		Version:   ver,
		Commit:    commit,
		BuildDate: formatBuildDate(date),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// vcsStamp reads the revision and commit time recorded by the Go toolchain,
// or "unknown" for whichever is absent.
func vcsStamp() (commit, commitTime string) {
	commit, commitTime = unknownStr, unknownStr
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, commitTime
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.time":
			commitTime = s.Value
		}
	}
	return commit, commitTime
}

// manufacturedVersion names an untagged build after its commit, truncated
// to the short-hash length.
func manufacturedVersion(commit string) string {
	return fmt.Sprintf("build-%.8s", commit)
}

// formatBuildDate renders RFC 3339 stamps for humans and leaves anything
// else untouched.
func formatBuildDate(date string) string {
	if date == unknownStr {
		return date
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.Format("2006-01-02 15:04:05 MST")
	}
	return date
}
