package config

import (
	"fmt"

	"aria.build/aria/internal/core/domain"
	"go.trai.ch/zerr"
)

// buildModel walks a fully interpolated root object node and produces the
// domain.ConfigModel it describes (§3, §6). Reserved/duplicate/empty names
// and unrecognized target kinds are reported as domain errors rather than
// diagnostics, since they aren't syntax problems.
func buildModel(root *node) (*domain.ConfigModel, error) {
	m := &domain.ConfigModel{
		Variables: make(map[string]string),
	}

	if projectNode := findMember(root, "project"); projectNode != nil {
		m.Project = buildProjectMeta(projectNode)
	}

	if varsNode := findMember(root, "variables"); varsNode != nil {
		for _, name := range objectMemberOrder(varsNode) {
			val := findMember(varsNode, name)
			m.Variables[name] = literalOf(val)
			m.VariableOrder = append(m.VariableOrder, name)
		}
	}

	outputDir := m.Project.Extra["output_dir"]
	if outputDir == "" {
		outputDir = "build"
	}

	targetsNode := findMember(root, "targets")
	if targetsNode == nil || targetsNode.kind != nodeArray {
		return m, nil
	}

	seen := make(map[string]bool, len(targetsNode.items))
	for _, tn := range targetsNode.items {
		if tn.kind != nodeObject {
			continue
		}
		spec, err := buildTargetSpec(tn)
		if err != nil {
			return nil, err
		}
		name := spec.Name.String()
		if name == "" {
			return nil, domain.ErrEmptyTargetName
		}
		if name == "all" {
			return nil, zerr.With(zerr.Wrap(domain.ErrReservedTargetName, "invalid target declaration"), "target_name", name)
		}
		if seen[name] {
			return nil, zerr.With(zerr.Wrap(domain.ErrDuplicateTargetName, "invalid target declaration"), "target_name", name)
		}
		seen[name] = true
		spec.OutputPath = domain.DeriveOutputPath(outputDir, name, spec.Kind)
		m.Targets = append(m.Targets, spec)
	}
	return m, nil
}

func buildProjectMeta(n *node) domain.ProjectMeta {
	meta := domain.ProjectMeta{Extra: make(map[string]string)}
	for _, name := range objectMemberOrder(n) {
		val := findMember(n, name)
		switch name {
		case "name":
			meta.Name = literalOf(val)
		case "version":
			meta.Version = literalOf(val)
		default:
			meta.Extra[name] = literalOf(val)
		}
	}
	return meta
}

func buildTargetSpec(n *node) (*domain.TargetSpec, error) {
	spec := &domain.TargetSpec{
		Kind:      domain.TargetBinary,
		Variables: make(map[string]string),
	}

	nameNode := findMember(n, "name")
	if nameNode == nil {
		return nil, zerr.New("target missing required 'name' member")
	}
	spec.Name = domain.NewInternedString(literalOf(nameNode))

	if typeNode := findMember(n, "type"); typeNode != nil {
		kind, ok := domain.ParseTargetKind(literalOf(typeNode))
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnknownTargetKind, "invalid target declaration"), "kind", literalOf(typeNode))
		}
		spec.Kind = kind
	}

	if sourcesNode := findMember(n, "sources"); sourcesNode != nil {
		spec.SourcePatterns = stringItemsOf(sourcesNode)
	}
	if depsNode := findMember(n, "deps"); depsNode != nil {
		spec.DeclaredDeps = stringItemsOf(depsNode)
	}
	if flagsNode := findMember(n, "flags"); flagsNode != nil {
		spec.Flags = stringItemsOf(flagsNode)
	}
	if varsNode := findMember(n, "variables"); varsNode != nil {
		for _, name := range objectMemberOrder(varsNode) {
			spec.Variables[name] = literalOf(findMember(varsNode, name))
		}
	}

	return spec, nil
}

// literalOf returns the flattened literal text of a (presumed already
// resolved) string node, or a best-effort rendering of other scalar kinds.
func literalOf(n *node) string {
	if n == nil {
		return ""
	}
	switch n.kind {
	case nodeString:
		return flattenLiteralParts(n.parts)
	case nodeInt:
		return fmt.Sprintf("%d", n.ival)
	case nodeBool:
		if n.bval {
			return "true"
		}
		return "false"
	case nodeNull:
		return ""
	default:
		return ""
	}
}

func stringItemsOf(n *node) []string {
	if n == nil || n.kind != nodeArray {
		return nil
	}
	out := make([]string, 0, len(n.items))
	for _, item := range n.items {
		out = append(out, literalOf(item))
	}
	return out
}
