// Package buildinfo carries version metadata stamped in via ldflags
// (see the Dockerfile).
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
