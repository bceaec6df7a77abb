package domain

import "path"

// TargetKind enumerates the three kinds of buildable target.
type TargetKind string

const (
	// TargetBinary produces a linked executable.
	TargetBinary TargetKind = "binary"
	// TargetLibrary produces a static archive from a group of compiled objects.
	TargetLibrary TargetKind = "library"
	// TargetObject produces a single compiled object file.
	TargetObject TargetKind = "object"
)

// ParseTargetKind maps a configuration string to a TargetKind, defaulting to
// TargetBinary per the external-interface grammar (§6), and reports whether
// the string was one of the recognized kinds.
func ParseTargetKind(s string) (TargetKind, bool) {
	switch TargetKind(s) {
	case TargetBinary, TargetLibrary, TargetObject:
		return TargetKind(s), true
	case "":
		return TargetBinary, true
	default:
		return "", false
	}
}

// TargetSpec describes one buildable unit as declared (and, after expansion,
// resolved) from the build description.
type TargetSpec struct {
	Name InternedString
	Kind TargetKind

	// SourcePatterns are the raw, pre-expansion pattern strings from the config.
	SourcePatterns []string

	// Sources holds the canonically sorted, expansion-resolved file paths.
	// Populated by the orchestrator's expansion stage, not by the parser.
	Sources []string

	// DeclaredDeps is the set of target names named by this target's `deps`
	// list. The DependencyAnalyzer unions this with scanned imports.
	DeclaredDeps []string

	Flags []string

	// Variables is this target's local interpolation scope, taken from its
	// `variables` subobject.
	Variables map[string]string

	// OutputPath is derived from Kind and the model's output directory once
	// the target is known; see DeriveOutputPath.
	OutputPath string
}

// DeriveOutputPath computes a target's artifact path per the layout rules in
// §6: binaries at "<dir>/<name>", libraries at "<dir>/lib<name>.a", objects
// at "<dir>/<name>.o".
func DeriveOutputPath(outputDir string, name string, kind TargetKind) string {
	switch kind {
	case TargetLibrary:
		return path.Join(outputDir, "lib"+name+".a")
	case TargetObject:
		return path.Join(outputDir, name+".o")
	default:
		return path.Join(outputDir, name)
	}
}

// ObjectOutputPath computes the per-source object path for a library build:
// "<dir>/obj/<name>/<stem>.o".
func ObjectOutputPath(outputDir, targetName, sourceStem string) string {
	return path.Join(outputDir, "obj", targetName, sourceStem+".o")
}

// ProjectMeta is the opaque `project` section of the configuration.
type ProjectMeta struct {
	Name    string
	Version string
	Extra   map[string]string
}

// ConfigModel is the fully resolved, immutable in-memory build description.
// It is produced by the ConfigParser + Interpolator pipeline and never
// back-references the parser's AST arena.
type ConfigModel struct {
	Project ProjectMeta

	// Variables holds the resolved global scope: name -> post-interpolation string.
	Variables map[string]string

	// VariableOrder preserves declaration order for diagnostics/round-tripping.
	VariableOrder []string

	Targets []*TargetSpec
}

// FindTarget returns the target with the given name, or nil.
func (m *ConfigModel) FindTarget(name string) *TargetSpec {
	for _, t := range m.Targets {
		if t.Name.String() == name {
			return t
		}
	}
	return nil
}

// TargetNames returns the set of all declared target names.
func (m *ConfigModel) TargetNames() map[string]bool {
	out := make(map[string]bool, len(m.Targets))
	for _, t := range m.Targets {
		out[t.Name.String()] = true
	}
	return out
}
