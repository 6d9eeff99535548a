// Package buildinfo holds release metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/aidanlsb/lorecheck/internal/buildinfo.Version=v0.4.0"
//
// Development builds leave them empty and `lorecheck version` falls back to
// the module build info.
package buildinfo

var (
	Version = ""
	Commit  = ""
	Date    = ""
)
