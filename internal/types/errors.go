package types

import "errors"

// Sentinel errors for rule evaluation.
var (
	// ErrConflictingComparison indicates a condition sets both comparisonValue and comparisonRef.
	ErrConflictingComparison = errors.New("condition sets both comparisonValue and comparisonRef")

	// ErrUnsupportedOperator indicates an unknown condition operator.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrRuleProcessing wraps any other failure while processing a single rule.
	ErrRuleProcessing = errors.New("rule processing failed")

	// ErrInvalidPath indicates a path string could not be parsed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrPathTooDeep indicates a path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("path exceeds maximum depth")

	// ErrFieldNotFound indicates a path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrEmptyRuleID indicates a rule without an identifier.
	ErrEmptyRuleID = errors.New("rule id is empty")

	// ErrInvalidDate indicates an unparseable activation bound.
	ErrInvalidDate = errors.New("invalid date")
)
