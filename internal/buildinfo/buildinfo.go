// Package buildinfo exposes version metadata, overridable at link time:
//
//	go build -ldflags "-X github.com/dharitri/backend/internal/buildinfo.Version=1.2.0"
package buildinfo

var (
	Version   = "1.0.0"
	Commit    = "none"
	BuildDate = "unknown"
)

// String formats the metadata on one line.
func String() string {
	return "version " + Version + " (commit " + Commit + ", built " + BuildDate + ")"
}
