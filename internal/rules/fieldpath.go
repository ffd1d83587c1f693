// internal/rules/fieldpath.go
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

/*
 * Path parsing and resolution for decoded JSON documents.
 *
 * ParsePath turns the authored string form into structured segments once,
 * at compile time. Every later stage (loop discovery, context generation,
 * instantiation) operates on segments, never on string search-and-replace.
 *
 * Grammar (dot separated, brackets attach to the preceding name):
 *   name       -> object key, or array index when canonical decimal
 *   [N]        -> literal array index
 *   []         -> unbound array traversal
 *   [@K]       -> traversal bound to loop ordinal K
 *   _context.  -> leading prefix, resolve against the side context
 *
 * Resolve follows literal segments only. Traversal and loop segments never
 * resolve; callers instantiate them first. Absence is reported as
 * ErrFieldNotFound, which is distinct from a present JSON null.
 */

// ResolveResult contains the resolved value.
type ResolveResult struct {
	Value any  // resolved value (may be nil for JSON null)
	Found bool // true if path resolved to a value
}

// ParsePath parses an authored path string into a structured Path.
// Returns ErrInvalidPath for malformed syntax and ErrPathTooDeep when the
// path exceeds MaxPathDepth segments.
func ParsePath(s string) (types.Path, error) {
	var p types.Path
	raw := s
	if strings.HasPrefix(s, types.ContextPrefix) {
		p.Context = true
		s = s[len(types.ContextPrefix):]
	}
	if s == "" {
		return types.Path{}, fmt.Errorf("%w: %q is empty", types.ErrInvalidPath, raw)
	}

	expectName := true
	for i := 0; i < len(s); {
		switch s[i] {
		case '.':
			if expectName || i == len(s)-1 {
				return types.Path{}, fmt.Errorf("%w: %q has an empty segment", types.ErrInvalidPath, raw)
			}
			expectName = true
			i++
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return types.Path{}, fmt.Errorf("%w: %q has an unterminated bracket", types.ErrInvalidPath, raw)
			}
			seg, err := parseBracket(s[i+1 : i+end])
			if err != nil {
				return types.Path{}, fmt.Errorf("%w: %q: %v", types.ErrInvalidPath, raw, err)
			}
			p.Segments = append(p.Segments, seg)
			expectName = false
			i += end + 1
		case ']':
			return types.Path{}, fmt.Errorf("%w: %q has an unmatched bracket", types.ErrInvalidPath, raw)
		default:
			if !expectName {
				return types.Path{}, fmt.Errorf("%w: %q is missing a separator", types.ErrInvalidPath, raw)
			}
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' && s[j] != ']' {
				j++
			}
			p.Segments = append(p.Segments, nameSegment(s[i:j]))
			expectName = false
			i = j
		}
	}

	if len(p.Segments) > types.MaxPathDepth {
		return types.Path{}, types.ErrPathTooDeep
	}
	return p, nil
}

// MustParsePath parses a path and panics on error. Intended for tests and
// static paths.
func MustParsePath(s string) types.Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// parseBracket parses the inside of a bracket group.
func parseBracket(inner string) (types.PathSegment, error) {
	switch {
	case inner == "":
		return types.PathSegment{Traverse: true}, nil
	case strings.HasPrefix(inner, "@"):
		n, ok := canonicalIndex(inner[1:])
		if !ok {
			return types.PathSegment{}, fmt.Errorf("bad loop placeholder [%s]", inner)
		}
		return types.PathSegment{Loop: n, IsLoop: true}, nil
	default:
		n, ok := canonicalIndex(inner)
		if !ok {
			return types.PathSegment{}, fmt.Errorf("bad index [%s]", inner)
		}
		return types.PathSegment{Index: n, IsIndex: true}, nil
	}
}

// nameSegment classifies a dotted name. Canonical decimals become indices so
// instantiated paths like clients.2.age address array elements.
func nameSegment(name string) types.PathSegment {
	if n, ok := canonicalIndex(name); ok {
		return types.PathSegment{Index: n, IsIndex: true}
	}
	return types.PathSegment{Key: name}
}

// canonicalIndex accepts non-negative decimals without leading zeros.
func canonicalIndex(s string) (int, bool) {
	if s == "" || len(s) > 9 || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Resolve traverses data following path segments.
// Returns ErrPathTooDeep if path exceeds MaxPathDepth.
// Returns ErrFieldNotFound if path does not exist in data or still contains
// unbound traversal/loop segments.
func Resolve(path []types.PathSegment, data any) (ResolveResult, error) {
	if len(path) > types.MaxPathDepth {
		return ResolveResult{}, types.ErrPathTooDeep
	}
	return resolveRecursive(path, data)
}

// resolveRecursive traverses nested JSON structures following path segments.
func resolveRecursive(path []types.PathSegment, current any) (ResolveResult, error) {
	if len(path) == 0 {
		return ResolveResult{Value: current, Found: true}, nil
	}

	seg := path[0]
	remaining := path[1:]
	if seg.Traverse || seg.IsLoop {
		return ResolveResult{}, types.ErrFieldNotFound
	}

	switch v := current.(type) {
	case map[string]any:
		key := seg.Key
		if seg.IsIndex {
			// Numeric names on objects fall back to the decimal key
			key = strconv.Itoa(seg.Index)
		}
		val, ok := v[key]
		if !ok {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, val)

	case []any:
		if !seg.IsIndex {
			// Cannot use string key on array
			return ResolveResult{}, types.ErrFieldNotFound
		}
		if seg.Index < 0 || seg.Index >= len(v) {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, v[seg.Index])

	default:
		// Null or scalar value but path continues
		return ResolveResult{}, types.ErrFieldNotFound
	}
}

// lookup resolves a path against the document or, for side-context paths,
// the side context. Only ErrFieldNotFound maps to absent; other errors are
// returned.
func lookup(path types.Path, doc, side types.Document) (any, bool, error) {
	root := doc
	if path.Context {
		root = side
	}
	res, err := Resolve(path.Segments, root)
	if err == types.ErrFieldNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Found, nil
}
