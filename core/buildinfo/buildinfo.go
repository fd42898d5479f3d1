// Package buildinfo carries the build identity reported at startup and by the
// status endpoint. Release builds set the variables with -ldflags:
//
//	-X 'github.com/m3rciful/intakebot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/intakebot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/intakebot/core/buildinfo.Date=2026-10-01T12:00:00Z'
package buildinfo

import "runtime/debug"

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is a snapshot of the build identity.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date,omitempty"`
}

// Current returns the linker-provided values, filling gaps from the VCS stamp
// the Go toolchain embeds in module builds.
func Current() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	if info.Commit != "" && info.Date != "" {
		return info
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return withDefaults(info)
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		}
	}
	return withDefaults(info)
}

func withDefaults(info Info) Info {
	if info.Commit == "" {
		info.Commit = "local"
	}
	return info
}
