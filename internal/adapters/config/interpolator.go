package config

import (
	"fmt"
	"os"
	"strings"
)

// colorMark implements the three-color marking of §4.2 for cycle detection
// and memoization during variable resolution.
type colorMark int

const (
	white colorMark = iota
	gray
	black
)

// EnvLookup abstracts process-environment access so ENV.<NAME> resolution
// can be stubbed in tests.
type EnvLookup func(name string) (string, bool)

// InterpolationError reports an undefined variable, unresolved ENV
// reference, circular definition, or a value that isn't a string where one
// is required (§4.2, §7). Path is the chain of variable names that led to
// the failure, root-to-leaf.
type InterpolationError struct {
	Message string
	Path    []string
}

func (e *InterpolationError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (resolution path: %s)", e.Message, strings.Join(e.Path, " -> "))
}

// varScope is one resolution scope (global, or a single target's local
// scope): the raw variable nodes plus per-name color and memoized result.
type varScope struct {
	vars     map[string]*node
	color    map[string]colorMark
	resolved map[string]string
}

func newVarScope(vars map[string]*node) *varScope {
	return &varScope{
		vars:     vars,
		color:    make(map[string]colorMark, len(vars)),
		resolved: make(map[string]string, len(vars)),
	}
}

// interpolator resolves &{NAME} placeholders across a parsed document
// (§4.2). Phase A resolves the global `variables` object; phase B resolves
// each target's local scope (falling back to already-resolved globals) and
// rewrites every string node reachable from the target to its resolved
// literal form.
type interpolator struct {
	env    EnvLookup
	global *varScope
}

func newInterpolator(env EnvLookup) *interpolator {
	if env == nil {
		env = os.LookupEnv
	}
	return &interpolator{env: env}
}

// Resolve runs phase A then phase B in place on root.
func (ip *interpolator) Resolve(root *node) error {
	globalsNode := findMember(root, "variables")
	ip.global = newVarScope(objectMemberMap(globalsNode))

	for _, name := range objectMemberOrder(globalsNode) {
		if _, err := ip.resolveVar(name, nil, nil); err != nil {
			return err
		}
	}
	rewriteResolvedStrings(globalsNode, ip.global)

	targetsNode := findMember(root, "targets")
	if targetsNode == nil || targetsNode.kind != nodeArray {
		return nil
	}
	for _, tgt := range targetsNode.items {
		if tgt.kind != nodeObject {
			continue
		}
		localNode := findMember(tgt, "variables")
		local := newVarScope(objectMemberMap(localNode))
		for _, m := range tgt.members {
			if m.key == "variables" {
				continue
			}
			if err := ip.resolveValueNode(m.value, local); err != nil {
				return err
			}
		}
		for _, name := range objectMemberOrder(localNode) {
			if _, err := ip.resolveVar(name, local, nil); err != nil {
				return err
			}
		}
		rewriteResolvedStrings(localNode, local)
	}
	return nil
}

// resolveValueNode rewrites every string node reachable from n (through
// arrays and nested objects) to its fully resolved literal form.
func (ip *interpolator) resolveValueNode(n *node, local *varScope) error {
	if n == nil {
		return nil
	}
	switch n.kind {
	case nodeString:
		resolved, err := ip.resolveStringParts(n.parts, local, nil)
		if err != nil {
			return err
		}
		n.parts = []stringPart{{literal: resolved}}
	case nodeArray:
		for _, item := range n.items {
			if err := ip.resolveValueNode(item, local); err != nil {
				return err
			}
		}
	case nodeObject:
		for _, m := range n.members {
			if err := ip.resolveValueNode(m.value, local); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveStringParts concatenates literal segments and resolved variable
// references into the final string value of a (possibly composite) string.
func (ip *interpolator) resolveStringParts(parts []stringPart, local *varScope, stack []string) (string, error) {
	if len(parts) == 1 && parts[0].varRef == "" {
		return parts[0].literal, nil
	}
	var sb strings.Builder
	for _, part := range parts {
		if part.varRef == "" {
			sb.WriteString(part.literal)
			continue
		}
		val, err := ip.resolveVar(part.varRef, local, stack)
		if err != nil {
			return "", err
		}
		sb.WriteString(val)
	}
	return sb.String(), nil
}

// resolveVar resolves a single &{NAME} reference: ENV.<NAME>, then local
// scope, then global scope (§4.2 lookup order).
func (ip *interpolator) resolveVar(name string, local *varScope, stack []string) (string, error) {
	if envName, ok := strings.CutPrefix(name, "ENV."); ok {
		v, ok := ip.env(envName)
		if !ok {
			return "", &InterpolationError{
				Message: fmt.Sprintf("undefined environment variable %q", envName),
				Path:    append(append([]string{}, stack...), name),
			}
		}
		return v, nil
	}

	if local != nil {
		if valNode, ok := local.vars[name]; ok {
			return ip.resolveInScope(local, name, valNode, local, stack)
		}
	}
	if valNode, ok := ip.global.vars[name]; ok {
		return ip.resolveInScope(ip.global, name, valNode, nil, stack)
	}
	return "", &InterpolationError{
		Message: fmt.Sprintf("undefined variable %q", name),
		Path:    append(append([]string{}, stack...), name),
	}
}

// resolveInScope resolves name within scope, using recursionLocal as the
// local scope for references found inside name's own definition (nil when
// scope is the global scope, since globals cannot see a target's locals).
func (ip *interpolator) resolveInScope(scope *varScope, name string, valNode *node, recursionLocal *varScope, stack []string) (string, error) {
	switch scope.color[name] {
	case black:
		return scope.resolved[name], nil
	case gray:
		return "", &InterpolationError{
			Message: fmt.Sprintf("circular variable reference involving %q", name),
			Path:    append(append([]string{}, stack...), name),
		}
	}
	if valNode.kind != nodeString {
		return "", &InterpolationError{
			Message: fmt.Sprintf("variable %q does not resolve to a string", name),
			Path:    append(append([]string{}, stack...), name),
		}
	}

	scope.color[name] = gray
	newStack := append(append([]string{}, stack...), name)
	resolved, err := ip.resolveStringParts(valNode.parts, recursionLocal, newStack)
	if err != nil {
		return "", err
	}
	scope.color[name] = black
	scope.resolved[name] = resolved
	return resolved, nil
}

// rewriteResolvedStrings overwrites each variable's AST node in varsNode with its
// memoized resolved value, so later readers of the `variables` object see
// plain literal strings.
func rewriteResolvedStrings(varsNode *node, scope *varScope) {
	if varsNode == nil || varsNode.kind != nodeObject {
		return
	}
	for _, m := range varsNode.members {
		if resolved, ok := scope.resolved[m.key]; ok && m.value.kind == nodeString {
			m.value.parts = []stringPart{{literal: resolved}}
		}
	}
}
