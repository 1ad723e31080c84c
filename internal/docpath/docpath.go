// Package docpath resolves field values out of a nested document tree using
// a small path grammar (dot segments, array index, wildcard, equality
// query, and the root path "."). Grounded on
// original_source/sourcecheck/utils/path_resolver.go semantics, re-expressed
// as an explicit AST per SPEC_FULL.md's Design Notes rather than a mega-regex.
package docpath

import (
	"strconv"
	"strings"
)

// Segment is one step of a parsed Path.
type Segment interface{ isSegment() }

// Root matches the single-character path "." and returns the document
// unchanged.
type Root struct{}

// Field selects a named key from a map.
type Field struct{ Name string }

// Index selects a positional element from a list.
type Index struct{ N int }

// Wildcard selects every element of a list.
type Wildcard struct{}

// Query filters a list of maps, keeping the first element whose Field
// equals Value (case-insensitive, trimmed string comparison).
type Query struct {
	Field string
	Value string
}

func (Root) isSegment()     {}
func (Field) isSegment()    {}
func (Index) isSegment()    {}
func (Wildcard) isSegment() {}
func (Query) isSegment()    {}

// Path is a parsed path expression: an ordered list of Segments.
type Path []Segment

// Parse compiles a path string into a Path AST.
//
// Grammar:
//
//	"."                      -> Root
//	"a.b.c"                  -> Field("a"), Field("b"), Field("c")
//	"a[0]"                   -> Field("a"), Index(0)
//	"a[*]"                   -> Field("a"), Wildcard
//	"a[?key='value'].b"      -> Field("a"), Query("key","value"), Field("b")
func Parse(path string) Path {
	if path == "." {
		return Path{Root{}}
	}
	if path == "" {
		return nil
	}

	var segments Path
	for _, rawSegment := range splitDotsOutsideBrackets(path) {
		name, brackets := splitBrackets(rawSegment)
		if name != "" {
			segments = append(segments, Field{Name: name})
		}
		for _, b := range brackets {
			segments = append(segments, parseBracket(b))
		}
	}
	return segments
}

// splitDotsOutsideBrackets splits on '.' but never inside a [...] group, so
// that "a[?k='v.w'].b" doesn't break on the dot inside the quoted value.
func splitDotsOutsideBrackets(path string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range path {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth == 0 {
				parts = append(parts, path[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, path[start:])
	return parts
}

// splitBrackets splits "name[a][b]" into ("name", []string{"a","b"}).
func splitBrackets(segment string) (string, []string) {
	idx := strings.IndexByte(segment, '[')
	if idx < 0 {
		return segment, nil
	}
	name := segment[:idx]
	rest := segment[idx:]

	var brackets []string
	for len(rest) > 0 {
		if rest[0] != '[' {
			break
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		brackets = append(brackets, rest[1:end])
		rest = rest[end+1:]
	}
	return name, brackets
}

func parseBracket(content string) Segment {
	if content == "*" {
		return Wildcard{}
	}
	if strings.HasPrefix(content, "?") {
		return parseQuery(content[1:])
	}
	if n, err := strconv.Atoi(content); err == nil {
		return Index{N: n}
	}
	return Field{Name: content}
}

// parseQuery parses "key='value'" (single-quoted) into a Query segment.
func parseQuery(expr string) Segment {
	eq := strings.IndexByte(expr, '=')
	if eq < 0 {
		return Query{}
	}
	key := strings.TrimSpace(expr[:eq])
	value := strings.Trim(strings.TrimSpace(expr[eq+1:]), "'\"")
	return Query{Field: key, Value: value}
}

// Get evaluates a Path against data and returns the resolved value, or
// default_ if the path does not resolve (missing key, type mismatch, or out
// of range index). Get never panics.
func Get(data any, path Path, default_ any) any {
	current := data
	for _, seg := range path {
		next, ok := apply(current, seg)
		if !ok {
			return default_
		}
		current = next
	}
	if current == nil {
		return default_
	}
	return current
}

func apply(current any, seg Segment) (any, bool) {
	switch s := seg.(type) {
	case Root:
		return current, true
	case Field:
		switch v := current.(type) {
		case map[string]any:
			val, ok := v[s.Name]
			return val, ok
		case []any:
			var out []any
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					if val, ok := m[s.Name]; ok {
						out = append(out, val)
					}
				}
			}
			if len(out) == 0 {
				return nil, false
			}
			return out, true
		default:
			return nil, false
		}
	case Index:
		list, ok := current.([]any)
		if !ok || s.N < 0 || s.N >= len(list) {
			return nil, false
		}
		return list[s.N], true
	case Wildcard:
		list, ok := current.([]any)
		if !ok {
			return nil, false
		}
		return list, true
	case Query:
		list, ok := current.([]any)
		if !ok {
			return nil, false
		}
		target := strings.ToLower(strings.TrimSpace(s.Value))
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			raw, ok := m[s.Field]
			if !ok {
				continue
			}
			str, ok := raw.(string)
			if !ok {
				continue
			}
			if strings.ToLower(strings.TrimSpace(str)) == target {
				return m, true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

// ResolveWithFallbacks tries each path in order and returns the first
// resolved value that is non-nil and non-empty (empty string, or a list/map
// with zero length). Returns default_ if none resolve.
func ResolveWithFallbacks(data any, paths []string, default_ any) any {
	for _, p := range paths {
		value := Get(data, Parse(p), nil)
		if isPresent(value) {
			return value
		}
	}
	return default_
}

func isPresent(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
