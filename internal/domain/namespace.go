package domain

import "strings"

// Namespace is a nested, mutable configuration subtree reserved for one
// sub-workflow. Nested namespaces are stored as Namespace values; leaves
// are opaque to the control plane and forwarded to the execution engine
// as-is.
type Namespace map[string]any

// Clone returns a deep copy. Nested namespaces and plain maps are copied
// recursively; slices are copied one level deep.
func (n Namespace) Clone() Namespace {
	if n == nil {
		return nil
	}
	out := make(Namespace, len(n))
	for key, value := range n {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case Namespace:
		return v.Clone()
	case map[string]any:
		return Namespace(v).Clone()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, item := range v {
			out[key] = item
		}
		return out
	default:
		return v
	}
}

// Merge deep-merges other into n. Nested namespaces merge recursively;
// any other value in other replaces the value in n.
func (n Namespace) Merge(other Namespace) {
	for key, value := range other {
		existing, ok := n[key].(Namespace)
		if !ok {
			if plain, isMap := n[key].(map[string]any); isMap {
				existing, ok = Namespace(plain), true
			}
		}
		incoming, incomingIsNS := asNamespace(value)
		if ok && incomingIsNS {
			existing.Merge(incoming)
			n[key] = existing
			continue
		}
		n[key] = cloneValue(value)
	}
}

// SetPath sets a value at a dot-separated path, creating intermediate
// namespaces as needed.
func (n Namespace) SetPath(path string, value any) {
	parts := strings.Split(path, ".")
	current := n
	for _, part := range parts[:len(parts)-1] {
		next, ok := asNamespace(current[part])
		if !ok {
			next = Namespace{}
			current[part] = next
		}
		current[part] = next
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// Lookup resolves a dot-separated path. The second return reports whether
// the full path was present.
func (n Namespace) Lookup(path string) (any, bool) {
	parts := strings.Split(path, ".")
	current := n
	for i, part := range parts {
		value, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return value, true
		}
		current, ok = asNamespace(value)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// Child returns the nested namespace at key, or nil when absent or not a
// namespace.
func (n Namespace) Child(key string) Namespace {
	child, _ := asNamespace(n[key])
	return child
}

func asNamespace(value any) (Namespace, bool) {
	switch v := value.(type) {
	case Namespace:
		return v, true
	case map[string]any:
		return Namespace(v), true
	default:
		return nil, false
	}
}
