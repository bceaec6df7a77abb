package domain

import "time"

// DirtyReason is the prioritized cause of a target's dirtiness (§3). Lower
// values are higher priority: StateManager.check_dirty returns the first
// reason that applies, checked in this order.
type DirtyReason int

const (
	// Clean means the target's cached output is still valid.
	Clean DirtyReason = iota
	// MissingArtifact means the recorded output file is absent on disk.
	MissingArtifact
	// MissingRecord means no ArtifactRecord exists for the target yet.
	MissingRecord
	// DependencyDirty means the target was marked dirty by propagation from a
	// dirty dependency, rather than by its own inputs changing.
	DependencyDirty
	// ToolchainChanged means the compiler identity differs from the one recorded.
	ToolchainChanged
	// FlagsChanged means the command-line flag hash differs from the record.
	FlagsChanged
	// SourceChanged means the combined source hash differs from the record.
	SourceChanged
	// DependencyChanged means a direct dependency's content hash differs from
	// the value captured at the last successful build.
	DependencyChanged
	// ImplicitDepChanged means an implicit dependency is missing or newer
	// than the last recorded build.
	ImplicitDepChanged
)

// String renders the reason the way diagnostics and logs expect it.
func (r DirtyReason) String() string {
	switch r {
	case Clean:
		return "Clean"
	case MissingArtifact:
		return "MissingArtifact"
	case MissingRecord:
		return "MissingRecord"
	case DependencyDirty:
		return "DependencyDirty"
	case ToolchainChanged:
		return "ToolchainChanged"
	case FlagsChanged:
		return "FlagsChanged"
	case SourceChanged:
		return "SourceChanged"
	case DependencyChanged:
		return "DependencyChanged"
	case ImplicitDepChanged:
		return "ImplicitDepChanged"
	default:
		return "Unknown"
	}
}

// IsDirty reports whether the reason requires a rebuild.
func (r DirtyReason) IsDirty() bool { return r != Clean }

// DependencyDigest pairs a direct-dependency file path with the content hash
// captured at build time, so later dirty-checks can detect drift without
// re-resolving the dependency's own target.
type DependencyDigest struct {
	Path string `yaml:"path"`
	Hash string `yaml:"hash"`
}

// ArtifactRecord is the persisted per-target build record (§3).
type ArtifactRecord struct {
	TargetName           string             `yaml:"target_name"`
	OutputPath           string             `yaml:"output_path"`
	SourceHash           string             `yaml:"source_hash"`
	CommandHash          string             `yaml:"command_hash"`
	DirectDependencies   []DependencyDigest `yaml:"direct_dependencies,omitempty"`
	ImplicitDependencies []string           `yaml:"implicit_dependencies,omitempty"`
	SourceTimestamp      int64              `yaml:"source_timestamp"`
	BuildTimestamp       int64              `yaml:"build_timestamp"`
	BuildDurationMs      int64              `yaml:"build_duration_ms"`
}

// ToolchainIdentity identifies the compiler whose output the cache was built
// with. Equality of both fields defines "same toolchain".
type ToolchainIdentity struct {
	CompilerVersion string `yaml:"compiler_version"`
	CompilerHash    string `yaml:"compiler_hash"`
}

// IsZero reports whether the identity has never been populated.
func (t ToolchainIdentity) IsZero() bool {
	return t.CompilerVersion == "" && t.CompilerHash == ""
}

// Equal compares two toolchain identities.
func (t ToolchainIdentity) Equal(o ToolchainIdentity) bool {
	return t.CompilerVersion == o.CompilerVersion && t.CompilerHash == o.CompilerHash
}

// StateManifest is the serializable root of the persisted build state (§6).
type StateManifest struct {
	Version   string                    `yaml:"version"`
	Toolchain ToolchainIdentity         `yaml:"toolchain"`
	Targets   map[string]ArtifactRecord `yaml:"targets"`
}

// ManifestVersion is the current self-describing manifest format version.
const ManifestVersion = "1"

// NewStateManifest returns an empty, versioned manifest.
func NewStateManifest() *StateManifest {
	return &StateManifest{
		Version: ManifestVersion,
		Targets: make(map[string]ArtifactRecord),
	}
}

// Now is the epoch-seconds clock used for SourceTimestamp/BuildTimestamp.
// A var so tests can stub it deterministically.
var Now = func() int64 { return time.Now().Unix() }
