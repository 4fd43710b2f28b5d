package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Release metadata set with -ldflags "-X". Empty Commit and BuildTime fall back
// to the VCS stamp the go tool embeds into the binary.
var (
	Version   = "0.3.0"
	Commit    = ""
	BuildTime = ""
)

const (
	unknown        = "unknown"
	shortCommitLen = 7
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
	// Dirty is set when the VCS stamp reports uncommitted changes.
	Dirty bool
}

// Current resolves Info from the ldflags values and the embedded build info.
func Current() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	if build, ok := debug.ReadBuildInfo(); ok {
		info.fromSettings(build.Settings)
	}

	if len(info.Commit) > shortCommitLen {
		info.Commit = info.Commit[:shortCommitLen]
	}

	if info.Commit == "" {
		info.Commit = unknown
	}

	if info.BuildTime == "" {
		info.BuildTime = unknown
	}

	return info
}

func (i *Info) fromSettings(settings []debug.BuildSetting) {
	stamped := i.Commit == ""

	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			if stamped {
				i.Commit = setting.Value
			}
		case "vcs.time":
			if i.BuildTime == "" {
				i.BuildTime = setting.Value
			}
		case "vcs.modified":
			i.Dirty = stamped && setting.Value == "true"
		}
	}
}

// String renders Info on one line, for example
// "asset-sync 0.3.0 (commit 1a2b3c4, 2026-01-02T03:04:05Z, go1.25.1)".
func (i Info) String() string {
	commit := i.Commit
	if i.Dirty {
		commit += "-dirty"
	}

	return fmt.Sprintf("asset-sync %s (commit %s, %s, %s)", i.Version, commit, i.BuildTime, i.GoVersion)
}

// UserAgent is the User-Agent header value sent to release hosts.
func UserAgent() string {
	return "asset-sync/" + Version
}
