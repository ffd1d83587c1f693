// Package types provides domain models shared across the ajre components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the rule model can be embedded by callers without
// pulling in the engine. ID utilities in ids.go import uuid but are isolated.
//
// Rules and conditions are caller-owned, read-only inputs. The engine never
// writes to them; it builds independent working copies per evaluation call.
package types

// Document is a decoded JSON value (map[string]any, []any, string, float64,
// bool or nil) as produced by encoding/json. Documents and side contexts are
// shared read-only by every rule and context of an evaluation.
type Document = any

// ContextPrefix marks a path that resolves against the side context instead
// of the main document. It is stripped before resolution.
const ContextPrefix = "_context."

// Engine defaults and resource limits.
const (
	// DefaultContextLimit caps the number of context tuples generated per rule.
	// 10000 combinations keeps a single rule evaluation in the low milliseconds.
	DefaultContextLimit = 10000

	// DefaultTimeLimitSeconds is the wall-clock budget for context generation.
	DefaultTimeLimitSeconds = 200

	// MaxPathDepth prevents unbounded recursion during path resolution.
	// 32 segments covers deeply nested documents with several traversals.
	MaxPathDepth = 32
)

// Result keywords reported on RuleResult.
const (
	KeywordConditional  = "conditional"
	KeywordContextLimit = "context_limit"
)
