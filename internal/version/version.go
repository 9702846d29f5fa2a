// Package version provides build-time version information.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info contains version information
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
	OS        string
	Arch      string
}

// GetInfo returns the full version information
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// GetVersion returns just the version string
func GetVersion() string {
	return Version
}

// UserAgent returns the User-Agent sent by outbound HTTP clients.
func UserAgent() string {
	return fmt.Sprintf("cw-certcheck/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
