package cmd

import (
	"fmt"
	goruntime "runtime"
	"runtime/debug"

	"github.com/dotcommander/yagent/internal/storage"
)

// BuildInfo is injected by the build pipeline.
type BuildInfo struct {
	Version   string
	CommitSHA string
}

// versionTemplate returns the Cobra version template string including
// commit SHA, Go version, and OS/arch.
func versionTemplate(b BuildInfo) string {
	v := "{{.Name}} {{.Version}}"
	if len(b.CommitSHA) >= storage.IDShort {
		v += " (" + b.CommitSHA[:storage.IDShort] + ")"
	}
	v += fmt.Sprintf(" %s %s/%s\n", goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
	return v
}

// normalizeBuildInfo fills missing fields from the VCS data embedded by the
// Go toolchain.
func normalizeBuildInfo(b BuildInfo) BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		if b.Version == "" {
			b.Version = "unknown"
		}
		return b
	}

	if b.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}

	var vcsRev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			vcsRev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	if b.CommitSHA == "" {
		b.CommitSHA = vcsRev
	}
	if b.Version != "" {
		return b
	}

	b.Version = "dev"
	if len(vcsRev) >= storage.IDShort {
		b.Version += "-" + vcsRev[:storage.IDShort]
	}
	if dirty {
		b.Version += "-dirty"
	}
	return b
}
