// internal/rules/result.go
package rules

import (
	"encoding/json"
	"errors"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

// ConditionDetail describes one condition that passed. Ref and
// ComparisonRef are rendered in instantiated form for looped rules.
type ConditionDetail struct {
	Index           int    `json:"index"`
	Ref             string `json:"ref"`
	Operator        string `json:"operator"`
	ComparisonValue any    `json:"comparisonValue,omitempty"`
	ComparisonRef   string `json:"comparisonRef,omitempty"`
	LeftValue       any    `json:"leftValue"`
	RightValue      any    `json:"rightValue"`
}

// ContextResult holds the passing conditions of one satisfying context.
type ContextResult struct {
	Context    []int             `json:"context"`
	Indices    map[string]int    `json:"indices"` // completeObjectPath -> index
	Conditions []ConditionDetail `json:"conditions"`
}

// ErrorEntry reports a rule error or a budget diagnostic.
type ErrorEntry struct {
	Kind    string         `json:"kind"`
	Cause   string         `json:"cause"`
	Context map[string]any `json:"context,omitempty"`
}

// Error kinds reported in ErrorEntry.Kind.
const (
	KindConflictingComparison = "ConflictingComparisonError"
	KindUnsupportedOperator   = "UnsupportedOperatorError"
	KindRuleProcessing        = "RuleProcessingError"
	KindContextLimit          = "ContextLimitReached"
	KindTimeLimit             = "TimeLimitReached"
)

// RuleResult is the outcome of one reported rule.
//
// Looped rules report per-context records in Contexts; rules without loops
// report the flat passing-condition list in Conditions. Both serialise to
// the "conditions" key.
type RuleResult struct {
	ID           string
	Type         string
	Message      string
	Satisfied    bool
	Keyword      string
	Looped       bool
	ContextCount int // tuples generated for looped rules
	Conditions   []ConditionDetail
	Contexts     []ContextResult
	Errors       []ErrorEntry
}

type ruleResultJSON struct {
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	Message      string       `json:"message"`
	Satisfied    bool         `json:"satisfied"`
	Keyword      string       `json:"keyword"`
	ContextCount int          `json:"contextCount,omitempty"`
	Conditions   any          `json:"conditions"`
	Errors       []ErrorEntry `json:"errors,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r RuleResult) MarshalJSON() ([]byte, error) {
	out := ruleResultJSON{
		ID:           r.ID,
		Type:         r.Type,
		Message:      r.Message,
		Satisfied:    r.Satisfied,
		Keyword:      r.Keyword,
		ContextCount: r.ContextCount,
		Errors:       r.Errors,
	}
	if r.Looped {
		contexts := r.Contexts
		if contexts == nil {
			contexts = []ContextResult{}
		}
		out.Conditions = contexts
	} else {
		conditions := r.Conditions
		if conditions == nil {
			conditions = []ConditionDetail{}
		}
		out.Conditions = conditions
	}
	return json.Marshal(out)
}

// newDetail builds the detail record for a passing condition.
func newDetail(cond CompiledCondition, out ConditionOutcome) ConditionDetail {
	d := ConditionDetail{
		Index:      cond.Index,
		Ref:        cond.Ref.String(),
		Operator:   cond.Operator.String(),
		LeftValue:  out.Left,
		RightValue: out.Right,
	}
	if cond.HasComparisonValue {
		d.ComparisonValue = cond.ComparisonValue
	}
	if !cond.ComparisonRef.IsZero() {
		d.ComparisonRef = cond.ComparisonRef.String()
	}
	return d
}

// errorEntry converts a rule error into its reported form.
func errorEntry(ruleID string, err error) ErrorEntry {
	entry := ErrorEntry{
		Kind:    errorKind(err),
		Cause:   err.Error(),
		Context: map[string]any{"ruleId": ruleID},
	}
	var condErr *ConditionError
	if errors.As(err, &condErr) {
		entry.Context["condition"] = condErr.Condition
	}
	return entry
}

// errorKind classifies err into one of the reported error kinds.
func errorKind(err error) string {
	switch {
	case errors.Is(err, types.ErrConflictingComparison):
		return KindConflictingComparison
	case errors.Is(err, types.ErrUnsupportedOperator):
		return KindUnsupportedOperator
	default:
		return KindRuleProcessing
	}
}
