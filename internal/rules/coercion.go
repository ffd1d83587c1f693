// internal/rules/coercion.go
package rules

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

/*
 * Operand normalisation for rule evaluation.
 *
 * Comparisons are case-insensitive for strings and type-tolerant for JSON
 * numbers. normalize() builds a new value and never writes to its input;
 * documents and side contexts are shared read-only across rules.
 *
 * Normalisation:
 *   - string: lower-cased
 *   - int/int32/int64/uint/float32/json.Number: widened to float64
 *   - []any / map[string]any: normalised element-wise into fresh containers
 *   - bool, nil, float64: unchanged
 *
 * Number widening lets comparisonValue literals decoded from YAML (int) meet
 * document values decoded from JSON (float64).
 */

// normalize returns the comparison form of v.
func normalize(v any) any {
	switch x := v.(type) {
	case string:
		return strings.ToLower(x)
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = normalize(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			out[k] = normalize(elem)
		}
		return out
	default:
		if f, ok := toFloat64(v); ok {
			return f
		}
		return v
	}
}

// asNumbers attempts to convert both values to float64 for numeric comparison.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// toFloat64 converts value to float64 if it's a numeric type.
// Handles the integer widths produced by YAML decoders and json.Number.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// length returns the length of strings, arrays and objects.
// Other types do not support length and report ok=false.
func length(v any) (int, bool) {
	switch x := v.(type) {
	case string:
		return utf8.RuneCountInString(x), true
	case []any:
		return len(x), true
	case map[string]any:
		return len(x), true
	default:
		return 0, false
	}
}
