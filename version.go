package livetl

import (
	"runtime"
	"runtime/debug"
)

// Name is the module's short name, used in user agents and CLI output.
const Name = "livetl"

// Version is the release version. Set at build time with
//
//	go build -ldflags "-X github.com/ZaguanLabs/livetl.Version=1.2.0"
var Version = "0.1.0"

// GitCommit is set via ldflags, or read from the embedded VCS stamp.
var GitCommit = ""

// FullVersion returns the version with a short commit suffix when known.
func FullVersion() string {
	commit := GitCommit
	if commit == "" {
		commit = vcsRevision()
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if commit == "" {
		return Version
	}
	return Version + "+" + commit
}

// UserAgent returns the User-Agent sent to translation services.
func UserAgent() string {
	return Name + "/" + Version + " (" + runtime.GOOS + "; " + runtime.Version() + ")"
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
