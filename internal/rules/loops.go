// internal/rules/loops.go
package rules

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

/*
 * Loop discovery.
 *
 * Scans every ref and comparisonRef of a working rule for unbound traversal
 * segments ("[]"), leftmost first. Each traversal is identified by its
 * completeObjectPath: the canonical string of the prefix before the marker,
 * with outer traversals of the same path already bound ("orders[@0].items").
 *
 * Discovery rules:
 *   - identical completeObjectPath anywhere in the rule -> one shared loop
 *   - same objectName, different completeObjectPath -> two loops + warning
 *   - ordinals follow discovery order and are written into the segments
 *   - the returned list is stable-sorted by completeObjectPath
 *
 * Consumers must look loops up by Ordinal, never by list position: after
 * sorting, position k and ordinal k generally differ. A parent array is a
 * strict prefix of its nested arrays, so sorting always places it first and
 * outer indices are bound before nested paths are resolved.
 */

// Loop describes one array traversal shared by the conditions of a rule.
type Loop struct {
	ObjectName         string     // last named segment of the array path (diagnostics only)
	CompleteObjectPath string     // canonical array path, dedup and sort key
	Ordinal            int        // discovery-order placeholder number
	Path               types.Path // array location; may hold outer loop bindings
}

// DiscoverLoops binds every traversal in conds to a loop and returns the
// loops sorted by CompleteObjectPath. conds is modified in place and must be
// a private working copy.
func DiscoverLoops(conds []CompiledCondition, logger *slog.Logger) []Loop {
	if logger == nil {
		logger = slog.Default()
	}

	var loops []Loop
	byPath := make(map[string]int)

	bind := func(p *types.Path) {
		for i := range p.Segments {
			if !p.Segments[i].Traverse {
				continue
			}

			prefix := types.Path{Context: p.Context, Segments: p.Segments[:i]}.Clone()
			key := prefix.String()

			idx, ok := byPath[key]
			if !ok {
				name := objectName(prefix.Segments)
				for _, existing := range loops {
					if existing.ObjectName == name {
						logger.Warn("distinct arrays share an object name",
							slog.String("object", name),
							slog.String("path", key),
							slog.String("other_path", existing.CompleteObjectPath),
						)
					}
				}
				idx = len(loops)
				loops = append(loops, Loop{
					ObjectName:         name,
					CompleteObjectPath: key,
					Ordinal:            idx,
					Path:               prefix,
				})
				byPath[key] = idx
			}

			p.Segments[i] = types.PathSegment{Loop: loops[idx].Ordinal, IsLoop: true}
		}
	}

	for i := range conds {
		bind(&conds[i].Ref)
		bind(&conds[i].ComparisonRef)
	}

	// Stable: equal paths cannot occur after dedup, but keep discovery order as tie-break
	sort.SliceStable(loops, func(i, j int) bool {
		return loops[i].CompleteObjectPath < loops[j].CompleteObjectPath
	})

	return loops
}

// objectName returns the last key of an array path, or the last index when
// the path has no keys (nested anonymous arrays).
func objectName(segs []types.PathSegment) string {
	for i := len(segs) - 1; i >= 0; i-- {
		switch {
		case segs[i].Key != "":
			return segs[i].Key
		case segs[i].IsIndex:
			return strconv.Itoa(segs[i].Index)
		}
	}
	return ""
}
