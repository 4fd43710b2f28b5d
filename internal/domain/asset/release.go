package asset

import (
	"maps"
	"slices"
)

// DefaultPlatform identifies the implicit single target of assets without per-platform builds.
const DefaultPlatform = "default"

// Release is the upstream state resolved on every sync attempt. It is never persisted.
type Release struct {
	// Tag is the upstream version identifier.
	Tag string
	// Assets maps a platform name to its download URL.
	Assets map[string]string
}

// Platforms returns the platforms that have a download URL, sorted.
func (r *Release) Platforms() []string {
	return slices.Sorted(maps.Keys(r.Assets))
}

// Platform is one target an asset is vendored for. It owns exactly one installed tree.
type Platform struct {
	// Name is the platform identifier, e.g. "linux64".
	Name string
	// Match is the substring an upstream asset name must contain to be selected for this platform.
	Match string
	// InstallDir is the absolute path of the installed tree.
	InstallDir string
	// Optional platforms may be absent from a release without failing the run.
	Optional bool
}

// MatchTerm returns Match when set, otherwise Name.
func (p Platform) MatchTerm() string {
	if p.Match != "" {
		return p.Match
	}

	return p.Name
}
