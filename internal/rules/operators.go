// internal/rules/operators.go
package rules

import (
	"fmt"
	"strings"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

/*
 * Operator comparison logic.
 *
 * Implements 15 comparison operators over normalised operands. Values should
 * already be passed through normalize() before reaching Compare(), which
 * lower-cases strings and widens numbers to float64.
 *
 * Operators:
 *   - exists/does_not_exists: presence checks (absence is not null)
 *   - = / <>: equality with numeric widening and deep equality for collections
 *   - < / <= / > / >=: numbers, or strings lexicographically
 *   - is_empty/is_not_empty: length of string, array or object
 *   - contains/does_not_contains: left includes right (member or substring)
 *   - is_contained: right includes left
 *   - in/not_in: right collection includes/excludes left
 *
 * Operators are a closed enum parsed once at compile time. The switch in
 * Compare is exhaustive; an unknown name never reaches it.
 */

// Operator identifies a condition comparison.
type Operator int

const (
	OpUnspecified Operator = iota
	OpExists
	OpDoesNotExist
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpIsEmpty
	OpIsNotEmpty
	OpContains
	OpDoesNotContain
	OpIsContained
	OpIn
	OpNotIn
)

var operatorNames = map[string]Operator{
	"exists":            OpExists,
	"does_not_exists":   OpDoesNotExist,
	"=":                 OpEq,
	"<>":                OpNeq,
	"<":                 OpLt,
	"<=":                OpLte,
	">":                 OpGt,
	">=":                OpGte,
	"is_empty":          OpIsEmpty,
	"is_not_empty":      OpIsNotEmpty,
	"contains":          OpContains,
	"does_not_contains": OpDoesNotContain,
	"is_contained":      OpIsContained,
	"in":                OpIn,
	"not_in":            OpNotIn,
}

// ParseOperator maps an authored operator name to its enum value.
// Returns ErrUnsupportedOperator for unknown names.
func ParseOperator(name string) (Operator, error) {
	op, ok := operatorNames[strings.TrimSpace(name)]
	if !ok {
		return OpUnspecified, fmt.Errorf("%w: %q", types.ErrUnsupportedOperator, name)
	}
	return op, nil
}

// String returns the authored name of the operator.
func (op Operator) String() string {
	for name, v := range operatorNames {
		if v == op {
			return name
		}
	}
	return fmt.Sprintf("operator(%d)", int(op))
}

// IsExistence reports whether the operator inspects presence rather than
// value. Only these operators are evaluated when the left operand is absent.
func (op Operator) IsExistence() bool {
	return op == OpExists || op == OpDoesNotExist
}

// Compare applies the operator to a present left operand and the right
// operand. Both values should already be normalised.
func Compare(op Operator, left, right any) (bool, error) {
	switch op {
	case OpExists:
		return true, nil
	case OpDoesNotExist:
		return false, nil
	case OpEq:
		return compareEqual(left, right), nil
	case OpNeq:
		return !compareEqual(left, right), nil
	case OpLt:
		c, ok := compareOrdered(left, right)
		return ok && c < 0, nil
	case OpLte:
		c, ok := compareOrdered(left, right)
		return ok && c <= 0, nil
	case OpGt:
		c, ok := compareOrdered(left, right)
		return ok && c > 0, nil
	case OpGte:
		c, ok := compareOrdered(left, right)
		return ok && c >= 0, nil
	case OpIsEmpty:
		n, ok := length(left)
		return ok && n == 0, nil
	case OpIsNotEmpty:
		n, ok := length(left)
		return ok && n > 0, nil
	case OpContains:
		return includes(left, right), nil
	case OpDoesNotContain:
		return !includes(left, right), nil
	case OpIsContained:
		return includes(right, left), nil
	case OpIn:
		return member(right, left), nil
	case OpNotIn:
		return !member(right, left), nil
	default:
		return false, fmt.Errorf("%w: %s", types.ErrUnsupportedOperator, op)
	}
}

// compareEqual performs equality comparison. Numbers are widened by
// normalize(), so float64 comparison covers JSON int/float mixing.
func compareEqual(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !compareEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !compareEqual(v, w) {
				return false
			}
		}
		return true
	}
	switch b.(type) {
	case []any, map[string]any:
		return false
	}
	return a == b
}

// compareOrdered performs three-way comparison (-1/0/1) of two numbers or
// two strings. Returns ok=false for incomparable types, which makes every
// ordering operator false.
func compareOrdered(a, b any) (int, bool) {
	if na, nb, ok := asNumbers(a, b); ok {
		switch {
		case na < nb:
			return -1, true
		case na > nb:
			return 1, true
		default:
			return 0, true
		}
	}
	sa, ok1 := a.(string)
	sb, ok2 := b.(string)
	if ok1 && ok2 {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

// includes reports whether container holds item: substring for strings,
// element equality for arrays, case-insensitive key presence for objects.
func includes(container, item any) bool {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		return ok && strings.Contains(c, s)
	case []any:
		return member(c, item)
	case map[string]any:
		s, ok := item.(string)
		if !ok {
			return false
		}
		for k := range c {
			if strings.EqualFold(k, s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// member checks if item exists in set using equality semantics.
// Strings are treated as collections of substrings.
func member(set, item any) bool {
	switch s := set.(type) {
	case []any:
		for _, elem := range s {
			if compareEqual(item, elem) {
				return true
			}
		}
		return false
	case string:
		str, ok := item.(string)
		return ok && strings.Contains(s, str)
	default:
		return false
	}
}
