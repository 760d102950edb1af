// Package version provides build-time version information.
// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/leadchat-api/internal/version.Version=1.0.0 ..."
//
// When the commit is not injected it is read from the Go build info.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Build-time variables set via ldflags
var (
	Version = "0.0.0-dev"
	Commit  = "unknown"
	Date    = "unknown"
	Dirty   = "false"
)

// Info holds all version information
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Dirty     bool   `json:"dirty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var (
	vcsOnce     sync.Once
	vcsRevision string
	vcsTime     string
	vcsModified bool
)

func readVCS() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vcsRevision = s.Value
		case "vcs.time":
			vcsTime = s.Value
		case "vcs.modified":
			vcsModified = s.Value == "true"
		}
	}
}

// Get returns the version info
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		Dirty:     Dirty == "true",
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if info.Commit == "unknown" {
		vcsOnce.Do(readVCS)
		if vcsRevision != "" {
			info.Commit = shortSHA(vcsRevision)
			info.Dirty = vcsModified
			if info.Date == "unknown" && vcsTime != "" {
				info.Date = vcsTime
			}
		}
	}
	return info
}

func shortSHA(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String returns a human-readable version string
func (i Info) String() string {
	dirty := ""
	if i.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s) built %s", i.Version, i.Commit, dirty, i.Date)
}

// Short returns the version with a -dirty suffix for modified trees.
func (i Info) Short() string {
	if i.Dirty {
		return i.Version + "-dirty"
	}
	return i.Version
}

// UserAgent is sent on outbound calls to model providers.
func UserAgent() string {
	return "leadchat-api/" + Get().Short()
}
