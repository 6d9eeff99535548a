package content

import (
	"sort"
	"strconv"
	"strings"
)

// Wildcard matches every element of an array or every value of an object.
const Wildcard = "*"

// SplitPath splits a dotted path into segments. An empty path has no
// segments and addresses the whole value.
func SplitPath(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Located is a value reached by a path, with the concrete segments that
// lead to it (wildcards replaced by the key or index they matched).
type Located struct {
	Path  []string
	Value any
}

// Walk resolves path segments against a decoded JSON value and returns
// every value reached. Object keys match by name, array items by decimal
// index, and "*" fans out over arrays and objects (objects in key order).
func Walk(v any, segments []string) []any {
	located := WalkPaths(v, segments)
	if located == nil {
		return nil
	}
	out := make([]any, len(located))
	for i, l := range located {
		out[i] = l.Value
	}
	return out
}

// WalkPaths is Walk, keeping the concrete path of every value reached.
func WalkPaths(v any, segments []string) []Located {
	current := []Located{{Value: v}}
	for _, seg := range segments {
		var next []Located
		for _, node := range current {
			for _, child := range step(node.Value, seg) {
				path := make([]string, len(node.Path), len(node.Path)+1)
				copy(path, node.Path)
				next = append(next, Located{Path: append(path, child.key), Value: child.value})
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

type edge struct {
	key   string
	value any
}

func step(node any, seg string) []edge {
	switch val := node.(type) {
	case map[string]any:
		if seg == Wildcard {
			keys := sortedKeys(val)
			out := make([]edge, 0, len(keys))
			for _, k := range keys {
				out = append(out, edge{key: k, value: val[k]})
			}
			return out
		}
		if child, ok := val[seg]; ok {
			return []edge{{key: seg, value: child}}
		}
	case []any:
		if seg == Wildcard {
			out := make([]edge, len(val))
			for i, child := range val {
				out[i] = edge{key: strconv.Itoa(i), value: child}
			}
			return out
		}
		if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 && idx < len(val) {
			return []edge{{key: strconv.Itoa(idx), value: val[idx]}}
		}
	}
	return nil
}

// VisitLeaves calls fn with the concrete path of every scalar reachable
// from v, prefix included. It visits exactly the leaves CountLeaves counts.
func VisitLeaves(v any, prefix []string, fn func(path []string)) {
	switch val := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(val) {
			VisitLeaves(val[k], append(prefix[:len(prefix):len(prefix)], k), fn)
		}
	case []any:
		for i, child := range val {
			VisitLeaves(child, append(prefix[:len(prefix):len(prefix)], strconv.Itoa(i)), fn)
		}
	default:
		fn(prefix)
	}
}

// CountLeaves counts scalar values (including nulls) reachable from v.
// Empty arrays and objects count as zero leaves.
func CountLeaves(v any) int {
	switch val := v.(type) {
	case map[string]any:
		n := 0
		for _, child := range val {
			n += CountLeaves(child)
		}
		return n
	case []any:
		n := 0
		for _, child := range val {
			n += CountLeaves(child)
		}
		return n
	default:
		return 1
	}
}

// VisitStrings calls fn for every string value reachable from v, in a
// deterministic order. Object keys listed in skip are not descended into at
// the top level.
func VisitStrings(v any, skip map[string]bool, fn func(s string)) {
	visitStrings(v, skip, true, fn)
}

func visitStrings(v any, skip map[string]bool, top bool, fn func(s string)) {
	switch val := v.(type) {
	case string:
		fn(val)
	case []any:
		for _, child := range val {
			visitStrings(child, nil, false, fn)
		}
	case map[string]any:
		for _, k := range sortedKeys(val) {
			if top && skip[k] {
				continue
			}
			visitStrings(val[k], nil, false, fn)
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
