// Package version reports the plrustgen release and build metadata.
//
// The release comes from the embedded VERSION file. Commit and date are
// stamped at link time:
//
//	go build -ldflags "-X github.com/pgschema/plrustgen/internal/version.GitCommit=$(git rev-parse --short HEAD) \
//	    -X github.com/pgschema/plrustgen/internal/version.BuildDate=$(date -u +%Y-%m-%d)"
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
)

//go:embed VERSION
var versionFile string

// Set via -ldflags -X; "unknown" in development builds.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Version returns the release from the VERSION file, e.g. "0.1.0".
func Version() string {
	return strings.TrimSpace(versionFile)
}

// GetGitCommit returns the commit plrustgen was built from.
func GetGitCommit() string {
	return GitCommit
}

// GetBuildDate returns the date plrustgen was built.
func GetBuildDate() string {
	return BuildDate
}

// Platform returns the OS/architecture combination
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// String renders the full build description shown by `plrustgen version`
// and the root help, e.g. "0.1.0@abc1234 linux/amd64 2026-10-16".
func String() string {
	return fmt.Sprintf("%s@%s %s %s", Version(), GetGitCommit(), Platform(), GetBuildDate())
}
