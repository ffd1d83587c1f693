// internal/rules/compile.go
package rules

import (
	"fmt"
	"strings"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles a caller-owned types.Rule into a CompiledRule: an independently
 * allocated working copy with parsed paths and operators. Loop discovery
 * annotates the working copy in place; the caller's rule is never written.
 *
 * Compilation workflow:
 *   1. Parse ref / comparisonRef into structured paths
 *   2. Parse operator names into the closed Operator enum
 *   3. Reject conditions that set both comparisonValue and comparisonRef
 *   4. Deep-copy comparisonValue literals
 *
 * Why compile-time validation: an unsupported operator or conflicting
 * comparison always surfaces as a rule error entry, even when an earlier
 * condition would short-circuit the conjunction or no context is generated.
 *
 * Loop placeholders ([@K]) are reserved for discovery output and rejected in
 * authored paths so ordinals cannot collide.
 */

// CompiledCondition is a working condition. Paths may be in source,
// loop-annotated or instantiated form depending on the pipeline stage.
type CompiledCondition struct {
	Index              int // position in the authored condition list
	Ref                types.Path
	Operator           Operator
	ComparisonValue    any
	HasComparisonValue bool
	ComparisonRef      types.Path
}

// CompiledRule is the private working copy of a rule for one evaluation.
type CompiledRule struct {
	ID          string
	Type        string
	Description string
	Conditions  []CompiledCondition
}

// ConditionError attributes an error to a condition of a rule.
type ConditionError struct {
	Condition int // authored condition index
	Err       error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %d: %v", e.Condition, e.Err)
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}

// Compile validates a rule and builds its working copy.
func Compile(rule *types.Rule) (*CompiledRule, error) {
	if strings.TrimSpace(rule.ID) == "" {
		return nil, types.ErrEmptyRuleID
	}

	compiled := &CompiledRule{
		ID:          rule.ID,
		Type:        rule.Type,
		Description: rule.Description,
		Conditions:  make([]CompiledCondition, 0, len(rule.Conditions)),
	}

	for i, cond := range rule.Conditions {
		cc, err := compileCondition(i, cond)
		if err != nil {
			return nil, &ConditionError{Condition: i, Err: err}
		}
		compiled.Conditions = append(compiled.Conditions, cc)
	}

	return compiled, nil
}

// compileCondition parses and validates a single condition.
func compileCondition(index int, cond types.Condition) (CompiledCondition, error) {
	hasValue := cond.HasComparisonValue()
	hasRef := cond.ComparisonRef != ""
	if hasValue && hasRef {
		return CompiledCondition{}, types.ErrConflictingComparison
	}

	op, err := ParseOperator(cond.Operator)
	if err != nil {
		return CompiledCondition{}, err
	}

	ref, err := parseAuthoredPath(cond.Ref)
	if err != nil {
		return CompiledCondition{}, fmt.Errorf("ref: %w", err)
	}

	var compRef types.Path
	if hasRef {
		compRef, err = parseAuthoredPath(cond.ComparisonRef)
		if err != nil {
			return CompiledCondition{}, fmt.Errorf("comparisonRef: %w", err)
		}
	}

	return CompiledCondition{
		Index:              index,
		Ref:                ref,
		Operator:           op,
		ComparisonValue:    cloneValue(cond.ComparisonValue),
		HasComparisonValue: hasValue,
		ComparisonRef:      compRef,
	}, nil
}

// parseAuthoredPath parses a source-dialect path and rejects loop placeholders.
func parseAuthoredPath(s string) (types.Path, error) {
	p, err := ParsePath(s)
	if err != nil {
		return types.Path{}, err
	}
	for _, seg := range p.Segments {
		if seg.IsLoop {
			return types.Path{}, fmt.Errorf("%w: %q uses a reserved loop placeholder", types.ErrInvalidPath, s)
		}
	}
	return p, nil
}

// cloneValue deep-copies decoded JSON containers.
func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = cloneValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			out[k] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}
