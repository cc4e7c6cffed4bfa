package restrequest

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build metadata, overridable with -ldflags "-X".
var (
	Version   = "v0.3.0"
	GitCommit = ""
	BuildDate = ""
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// GetVersionInfo returns the build metadata. Commit and build date fall back
// to the VCS stamp embedded by the go command, then to "unknown".
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = s.Value
			case s.Key == "vcs.time" && info.BuildDate == "":
				info.BuildDate = s.Value
			}
		}
	}

	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}

	return info
}

// String renders the one line form printed by --version.
func (v VersionInfo) String() string {
	return fmt.Sprintf("restrequest %s (commit: %s, built: %s, go: %s)", v.Version, v.Commit, v.BuildDate, v.GoVersion)
}

// GetVersion returns a human-readable version string.
func GetVersion() string {
	return GetVersionInfo().String()
}

// UserAgent is the default User-Agent header value sent by the CLI.
func UserAgent() string {
	return "restrequest/" + Version
}
