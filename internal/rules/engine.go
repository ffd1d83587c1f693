// internal/rules/engine.go
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

/*
 * Rule evaluator.
 *
 * Orchestrates one batch of rules against one document:
 *
 *   active window -> compile -> DISCOVER -> NO_LOOPS: EVAL_DIRECT
 *                                        -> HAS_LOOPS: EXPLODE -> EVAL_PER_CONTEXT
 *                 -> COLLECT
 *
 * Rules are processed sequentially in input order. Each rule owns its
 * compiled working copy and its budget; the document and side context are
 * shared read-only, so concurrent Evaluate calls are safe.
 *
 * Failure isolation: any error or panic while processing one rule is turned
 * into an error entry on that rule's result. The batch never aborts.
 *
 * Reporting: a rule appears in the results when it is satisfied, has errors,
 * or tripped its budget. Everything else is silently dropped.
 */

// TimeBudget selects when the wall-clock budget starts counting.
type TimeBudget int

const (
	// TimeBudgetBatch measures every rule's time limit from the start of the
	// Evaluate call. A slow early rule leaves less time for later rules.
	TimeBudgetBatch TimeBudget = iota

	// TimeBudgetRule restarts the time limit for each rule.
	TimeBudgetRule
)

// ParseTimeBudget parses "batch" or "rule".
func ParseTimeBudget(s string) (TimeBudget, error) {
	switch s {
	case "", "batch":
		return TimeBudgetBatch, nil
	case "rule":
		return TimeBudgetRule, nil
	default:
		return TimeBudgetBatch, fmt.Errorf("unknown time budget %q (want batch or rule)", s)
	}
}

func (b TimeBudget) String() string {
	if b == TimeBudgetRule {
		return "rule"
	}
	return "batch"
}

// Options controls evaluation limits and reporting.
type Options struct {
	ContextLimit      int           // max contexts generated per rule
	TimeLimit         time.Duration // wall-clock limit, see TimeBudget
	ReturnAllContexts bool          // false stops a looped rule at its first passing context
	TimeBudget        TimeBudget
	Now               func() time.Time // clock for activation windows and budgets
}

// DefaultOptions returns the standard evaluation options.
func DefaultOptions() Options {
	return Options{
		ContextLimit:      types.DefaultContextLimit,
		TimeLimit:         types.DefaultTimeLimitSeconds * time.Second,
		ReturnAllContexts: true,
		TimeBudget:        TimeBudgetBatch,
		Now:               time.Now,
	}
}

// withDefaults fills unset limits. A zero Options behaves like DefaultOptions
// except for ReturnAllContexts, which keeps its zero value.
func (o Options) withDefaults() Options {
	if o.ContextLimit <= 0 {
		o.ContextLimit = types.DefaultContextLimit
	}
	if o.TimeLimit <= 0 {
		o.TimeLimit = types.DefaultTimeLimitSeconds * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Engine evaluates rule batches.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a new rules engine instance. A nil logger uses slog.Default().
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Evaluate runs rules against doc with optional side context and returns the
// reported results in input order. Rules outside their activation window are
// skipped. The inputs are never mutated.
func (e *Engine) Evaluate(ctx context.Context, doc types.Document, rules []types.Rule, side types.Document, opts Options) []RuleResult {
	opts = opts.withDefaults()

	now := opts.Now()
	batchStart := now
	results := make([]RuleResult, 0, len(rules))

	for i := range rules {
		rule := &rules[i]
		if !Active(rule, now) {
			e.logger.Debug("rule outside activation window", slog.String("rule_id", rule.ID))
			continue
		}

		start := batchStart
		if opts.TimeBudget == TimeBudgetRule {
			start = opts.Now()
		}
		budget := NewBudget(ctx, opts.ContextLimit, start, opts.TimeLimit)
		budget.now = opts.Now

		result := e.EvaluateRule(doc, rule, side, budget, opts.ReturnAllContexts)
		if result.Satisfied || len(result.Errors) > 0 || result.Keyword == types.KeywordContextLimit {
			results = append(results, result)
		}
	}

	return results
}

// EvaluateRule evaluates a single rule under budget. The result is always
// populated; callers decide whether to report it.
func (e *Engine) EvaluateRule(doc types.Document, rule *types.Rule, side types.Document, budget *Budget, returnAll bool) (result RuleResult) {
	result = RuleResult{
		ID:      rule.ID,
		Type:    rule.Type,
		Message: rule.Description,
		Keyword: types.KeywordConditional,
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", types.ErrRuleProcessing, r)
			e.fail(&result, err)
		}
	}()

	compiled, err := Compile(rule)
	if err != nil {
		e.fail(&result, err)
		return result
	}

	loops := DiscoverLoops(compiled.Conditions, e.logger)
	if len(loops) == 0 {
		e.evalDirect(doc, side, compiled, &result)
		return result
	}

	result.Looped = true
	set := GenerateContexts(doc, side, loops, budget)
	result.ContextCount = len(set.Tuples)

	e.evalPerContext(doc, side, compiled, loops, set.Tuples, returnAll, &result)

	if set.LimitReached || set.TimeReached {
		e.markLimit(&result, set, budget)
	}
	return result
}

// evalDirect evaluates the conjunction once, stopping at the first failure.
func (e *Engine) evalDirect(doc, side types.Document, rule *CompiledRule, result *RuleResult) {
	details := make([]ConditionDetail, 0, len(rule.Conditions))
	for _, cond := range rule.Conditions {
		out, err := EvaluateCondition(doc, cond, side)
		if err != nil {
			e.fail(result, &ConditionError{Condition: cond.Index, Err: err})
			return
		}
		if !out.Passed {
			return
		}
		details = append(details, newDetail(cond, out))
	}
	result.Satisfied = true
	result.Conditions = details
}

// evalPerContext evaluates the conjunction in every context and keeps the
// passing ones. A condition error aborts the remaining contexts.
func (e *Engine) evalPerContext(doc, side types.Document, rule *CompiledRule, loops []Loop, tuples [][]int, returnAll bool, result *RuleResult) {
	for _, tuple := range tuples {
		details, passed, err := evalContext(doc, side, rule, loops, tuple)
		if err != nil {
			e.fail(result, err)
			return
		}
		if !passed {
			continue
		}

		result.Satisfied = true
		result.Contexts = append(result.Contexts, ContextResult{
			Context:    tuple,
			Indices:    contextIndices(loops, tuple),
			Conditions: details,
		})
		if !returnAll {
			return
		}
	}
}

// evalContext evaluates all conditions of rule for one tuple.
func evalContext(doc, side types.Document, rule *CompiledRule, loops []Loop, tuple []int) ([]ConditionDetail, bool, error) {
	details := make([]ConditionDetail, 0, len(rule.Conditions))
	for _, cond := range rule.Conditions {
		concrete := Instantiate(cond, loops, tuple)
		out, err := EvaluateCondition(doc, concrete, side)
		if err != nil {
			return nil, false, &ConditionError{Condition: cond.Index, Err: err}
		}
		if !out.Passed {
			return nil, false, nil
		}
		details = append(details, newDetail(concrete, out))
	}
	return details, true, nil
}

// contextIndices maps each loop's array path to its index in tuple.
func contextIndices(loops []Loop, tuple []int) map[string]int {
	indices := make(map[string]int, len(loops))
	for k, loop := range loops {
		if k < len(tuple) {
			indices[loop.CompleteObjectPath] = tuple[k]
		}
	}
	return indices
}

// markLimit records a budget trip on result.
func (e *Engine) markLimit(result *RuleResult, set ContextSet, budget *Budget) {
	result.Keyword = types.KeywordContextLimit

	kind, cause := KindContextLimit, fmt.Sprintf("context limit of %d reached", budget.ContextLimit)
	if set.TimeReached {
		kind, cause = KindTimeLimit, "time limit reached"
	}

	result.Errors = append(result.Errors, ErrorEntry{
		Kind:  kind,
		Cause: cause,
		Context: map[string]any{
			"ruleId":    result.ID,
			"generated": len(set.Tuples),
		},
	})

	e.logger.Warn("context budget exhausted",
		slog.String("rule_id", result.ID),
		slog.String("kind", kind),
		slog.Int("generated", len(set.Tuples)),
	)
}

// fail records err on result. Errors other than the operator and comparison
// kinds are wrapped as rule processing errors.
func (e *Engine) fail(result *RuleResult, err error) {
	if !errors.Is(err, types.ErrConflictingComparison) &&
		!errors.Is(err, types.ErrUnsupportedOperator) &&
		!errors.Is(err, types.ErrRuleProcessing) {
		err = fmt.Errorf("%w: %w", types.ErrRuleProcessing, err)
	}

	result.Errors = append(result.Errors, errorEntry(result.ID, err))
	e.logger.Warn("rule evaluation failed",
		slog.String("rule_id", result.ID),
		slog.String("error", err.Error()),
	)
}
