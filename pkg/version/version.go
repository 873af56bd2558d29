// Package version exposes build information for devicelab binaries.
package version

import "fmt"

// Injected via -ldflags at build time.
//
//nolint:gochecknoglobals // ldflags targets must be package globals
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return version
}

// Full returns the version with commit and build date, as printed by the
// -version flag.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

// Info is the build identity in structured form, for log fields and
// diagnostics endpoints.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the build identity.
func Get() Info {
	return Info{Version: version, Commit: commit, Date: date}
}
