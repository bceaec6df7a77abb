package config

import (
	"fmt"
	"strconv"
	"strings"
)

// parseLegacy converts the `[section]` / `key = value` flat dialect (§6,
// §9 "Legacy flat dialect") into the same root-object AST shape the brace
// grammar produces, so interpolation and model-building stay dialect
// agnostic. isLegacyDocument decides which front-end to call.
func parseLegacy(file, src string) (*node, []Diagnostic) {
	lp := &legacyParser{file: file, arena: newArena()}
	lp.run(src)
	return lp.root, lp.diags
}

// isLegacyDocument reports whether src looks like the flat `[section]`
// dialect rather than the brace-object grammar: the first significant
// character is '[' instead of '{'.
func isLegacyDocument(src string) bool {
	for _, line := range strings.Split(src, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") || strings.HasPrefix(t, "//") {
			continue
		}
		return strings.HasPrefix(t, "[")
	}
	return false
}

type legacyParser struct {
	file  string
	arena *arena
	root  *node
	diags []Diagnostic

	project   *node
	variables *node
	targets   map[string]*node
	order     []string

	current *node
}

func (lp *legacyParser) errorf(line int, format string, args ...any) {
	lp.diags = append(lp.diags, Diagnostic{File: lp.file, Line: line, Col: 1, Message: fmt.Sprintf(format, args...)})
}

func (lp *legacyParser) run(src string) {
	lp.root = allocNode(lp.arena, nodeObject)
	lp.targets = make(map[string]*node)

	for i, raw := range strings.Split(src, "\n") {
		line := i + 1
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//") {
			continue
		}
		if strings.HasPrefix(text, "[") {
			lp.enterSection(text, line)
			continue
		}
		lp.assign(text, line)
	}

	lp.finish()
}

func (lp *legacyParser) enterSection(text string, line int) {
	if !strings.HasSuffix(text, "]") {
		lp.errorf(line, "malformed section header %q: missing closing ']'", text)
		lp.current = nil
		return
	}
	name := strings.TrimSpace(text[1 : len(text)-1])
	switch {
	case name == "project":
		if lp.project == nil {
			lp.project = allocNode(lp.arena, nodeObject)
		}
		lp.current = lp.project
	case name == "variables":
		if lp.variables == nil {
			lp.variables = allocNode(lp.arena, nodeObject)
		}
		lp.current = lp.variables
	case strings.HasPrefix(name, "target."):
		targetName := strings.TrimSpace(strings.TrimPrefix(name, "target."))
		if targetName == "" {
			lp.errorf(line, "empty target name in section header %q", text)
			lp.current = nil
			return
		}
		tgt, ok := lp.targets[targetName]
		if !ok {
			tgt = allocNode(lp.arena, nodeObject)
			nameVal := allocNode(lp.arena, nodeString)
			nameVal.parts = []stringPart{{literal: targetName}}
			setMember(tgt, "name", nameVal)
			lp.targets[targetName] = tgt
			lp.order = append(lp.order, targetName)
		}
		lp.current = tgt
	default:
		lp.errorf(line, "unknown section %q", name)
		lp.current = nil
	}
}

func (lp *legacyParser) assign(text string, line int) {
	if lp.current == nil {
		lp.errorf(line, "key-value pair outside of any section: %q", text)
		return
	}
	eq := strings.IndexByte(text, '=')
	if eq < 0 {
		lp.errorf(line, "expected 'key = value', got %q", text)
		return
	}
	key := strings.TrimSpace(text[:eq])
	rawVal := strings.TrimSpace(text[eq+1:])
	if key == "" {
		lp.errorf(line, "empty key in assignment %q", text)
		return
	}
	val, ok := lp.parseValue(rawVal, line)
	if !ok {
		return
	}
	setMember(lp.current, key, val)
}

func (lp *legacyParser) parseValue(raw string, line int) (*node, bool) {
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		arr := allocNode(lp.arena, nodeArray)
		inner := strings.TrimSpace(raw[1 : len(raw)-1])
		if inner == "" {
			return arr, true
		}
		for _, elem := range splitTopLevelCommas(inner) {
			v, ok := lp.parseScalar(strings.TrimSpace(elem), line)
			if !ok {
				return nil, false
			}
			arr.items = append(arr.items, v)
		}
		return arr, true
	}
	return lp.parseScalar(raw, line)
}

func (lp *legacyParser) parseScalar(raw string, line int) (*node, bool) {
	switch {
	case strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2:
		parts, err := splitPlaceholders(raw[1 : len(raw)-1])
		if err != nil {
			lp.errorf(line, "%s", err.Error())
			return nil, false
		}
		n := allocNode(lp.arena, nodeString)
		n.parts = parts
		return n, true
	case raw == "true":
		n := allocNode(lp.arena, nodeBool)
		n.bval = true
		return n, true
	case raw == "false":
		return allocNode(lp.arena, nodeBool), true
	case raw == "null":
		return allocNode(lp.arena, nodeNull), true
	case raw == "":
		lp.errorf(line, "empty value")
		return nil, false
	default:
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			n := allocNode(lp.arena, nodeInt)
			n.ival = v
			return n, true
		}
		n := allocNode(lp.arena, nodeString)
		n.parts = []stringPart{{literal: raw}}
		return n, true
	}
}

// splitTopLevelCommas splits a comma-separated list, ignoring commas inside
// double-quoted elements.
func splitTopLevelCommas(s string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 || len(out) > 0 {
		out = append(out, cur.String())
	}
	return out
}

// splitPlaceholders splits a plain (non-backtick) string body into literal
// and "&{NAME}" segments, mirroring the lexer's backtick-string handling.
func splitPlaceholders(s string) ([]stringPart, error) {
	var parts []stringPart
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, stringPart{literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '&' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated interpolation placeholder")
			}
			flush()
			parts = append(parts, stringPart{varRef: s[i+2 : i+2+end]})
			i += 2 + end
			continue
		}
		lit.WriteByte(s[i])
	}
	flush()
	if len(parts) == 0 {
		parts = []stringPart{{literal: ""}}
	}
	return parts, nil
}

func (lp *legacyParser) finish() {
	if lp.project == nil {
		lp.project = allocNode(lp.arena, nodeObject)
	}
	if lp.variables == nil {
		lp.variables = allocNode(lp.arena, nodeObject)
	}
	targetsArr := allocNode(lp.arena, nodeArray)
	for _, name := range lp.order {
		targetsArr.items = append(targetsArr.items, lp.targets[name])
	}
	setMember(lp.root, "project", lp.project)
	setMember(lp.root, "variables", lp.variables)
	setMember(lp.root, "targets", targetsArr)
}
