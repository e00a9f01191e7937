// Package version carries build metadata injected with -ldflags, e.g.
// go build -ldflags "-X git.home.luguber.info/inful/csmon/internal/version.Version=v0.3.0".
package version

import "fmt"

var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("csmon %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
