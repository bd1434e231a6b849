// Package version holds build information injected at link time.
//
//	go build -ldflags "-X salesagent/pkg/version.Version=v0.3.0 -X salesagent/pkg/version.Commit=$(git rev-parse --short HEAD)"
package version

import "fmt"

//nolint:gochecknoglobals // Must be package-level vars for ldflags injection.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the build info for --version output.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
