// internal/rules/evaluate.go
package rules

import (
	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

/*
 * Condition evaluation.
 *
 * Evaluates one concrete condition (no loop placeholders) against the
 * document and the optional side context.
 *
 * Evaluation flow:
 *   1. Reject conditions that set both comparisonValue and comparisonRef
 *   2. Resolve left (ref) against document or side context (_context.)
 *   3. Resolve right from comparisonRef, else take comparisonValue
 *   4. Absent left: existence operators decide, everything else is false
 *   5. Normalise both operands and apply the operator
 *
 * Absence is not an error. An absent comparisonRef yields a nil right
 * operand; it is not reported as a failure of its own.
 */

// ConditionOutcome records the comparison performed for one condition.
type ConditionOutcome struct {
	Passed    bool
	Left      any  // resolved left operand (nil when absent)
	LeftFound bool // false when ref did not resolve
	Right     any  // comparisonValue, or resolved comparisonRef
}

// EvaluateCondition evaluates a concrete condition.
// Returns ErrConflictingComparison when both comparison fields are set and
// ErrUnsupportedOperator for an operator outside the closed set.
func EvaluateCondition(doc types.Document, cond CompiledCondition, side types.Document) (ConditionOutcome, error) {
	if cond.HasComparisonValue && !cond.ComparisonRef.IsZero() {
		return ConditionOutcome{}, types.ErrConflictingComparison
	}

	left, found, err := lookup(cond.Ref, doc, side)
	if err != nil {
		return ConditionOutcome{}, err
	}

	right := cond.ComparisonValue
	if !cond.ComparisonRef.IsZero() {
		right, _, err = lookup(cond.ComparisonRef, doc, side)
		if err != nil {
			return ConditionOutcome{}, err
		}
	}

	out := ConditionOutcome{Left: left, LeftFound: found, Right: right}

	switch {
	case !found && cond.Operator.IsExistence():
		out.Passed = cond.Operator == OpDoesNotExist
	case !found:
		out.Passed = false
	default:
		passed, err := Compare(cond.Operator, normalize(left), normalize(right))
		if err != nil {
			return ConditionOutcome{}, err
		}
		out.Passed = passed
	}

	return out, nil
}
