package config

// findMember returns the value node of the first top-level member named key,
// or nil if n is not an object or has no such member.
func findMember(n *node, key string) *node {
	if n == nil || n.kind != nodeObject {
		return nil
	}
	for _, m := range n.members {
		if m.key == key {
			return m.value
		}
	}
	return nil
}

// objectMemberMap builds a name->value lookup for an object node's direct
// members. A nil or non-object node yields an empty map.
func objectMemberMap(n *node) map[string]*node {
	out := make(map[string]*node)
	if n == nil || n.kind != nodeObject {
		return out
	}
	for _, m := range n.members {
		out[m.key] = m.value
	}
	return out
}

// objectMemberOrder returns an object node's member keys in declaration order.
func objectMemberOrder(n *node) []string {
	if n == nil || n.kind != nodeObject {
		return nil
	}
	keys := make([]string, 0, len(n.members))
	for _, m := range n.members {
		keys = append(keys, m.key)
	}
	return keys
}

// allocNode hands out a zeroed, arena-owned node of the given kind.
func allocNode(a *arena, kind nodeKind) *node {
	n := a.alloc()
	n.kind = kind
	return n
}

// setMember replaces obj's existing member named key, or appends a new one.
func setMember(obj *node, key string, value *node) {
	for i, m := range obj.members {
		if m.key == key {
			obj.members[i].value = value
			return
		}
	}
	obj.members = append(obj.members, member{key: key, value: value})
}
