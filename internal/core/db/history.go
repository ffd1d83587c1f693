package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ggerhardt/ajre-rules-engine/internal/rules"
	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

// ErrEvaluationNotFound indicates an unknown evaluation ID.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// EvaluationSummary is one recorded evaluation call.
type EvaluationSummary struct {
	EvaluationID   string `db:"evaluation_id"`
	CreatedAtMs    int64  `db:"created_at_ms"`
	RuleCount      int    `db:"rule_count"`
	ReportedCount  int    `db:"reported_count"`
	SatisfiedCount int    `db:"satisfied_count"`
	DurationMs     int64  `db:"duration_ms"`
}

// CreatedAt returns the creation time.
func (s EvaluationSummary) CreatedAt() time.Time {
	return time.UnixMilli(s.CreatedAtMs).UTC()
}

// Duration returns the evaluation wall time.
func (s EvaluationSummary) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// RuleOutcome is the stored summary of one reported rule.
type RuleOutcome struct {
	RuleID       string `db:"rule_id"`
	RuleType     string `db:"rule_type"`
	Satisfied    bool   `db:"satisfied"`
	Keyword      string `db:"keyword"`
	ContextCount int    `db:"context_count"`
	ErrorCount   int    `db:"error_count"`
}

// Recorder persists evaluation summaries.
type Recorder struct {
	db      *sqlx.DB
	queries *Queries
}

// NewRecorder creates a recorder on a migrated database.
func NewRecorder(db *sqlx.DB) (*Recorder, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Recorder{db: db, queries: queries}, nil
}

// Record stores the summary of one evaluation call and its reported rules
// in a single transaction. ruleCount is the number of rules submitted. The
// creation time is the one embedded in the evaluation ID.
func (r *Recorder) Record(ctx context.Context, id types.EvaluationID, ruleCount int, results []rules.RuleResult, duration time.Duration) error {
	created := types.EvaluationIDTime(id)
	if created.IsZero() {
		return fmt.Errorf("invalid evaluation ID %q", id)
	}

	satisfied := 0
	for _, res := range results {
		if res.Satisfied {
			satisfied++
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}

	_, err = r.queries.ExecTx(ctx, tx, "insert-evaluation",
		string(id), created.UnixMilli(), ruleCount, len(results), satisfied, duration.Milliseconds())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert evaluation %s: %w", id, err)
	}

	for i, res := range results {
		_, err = r.queries.ExecTx(ctx, tx, "insert-rule-result",
			string(id), i, res.ID, res.Type, res.Satisfied, res.Keyword, res.ContextCount, len(res.Errors))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert result for rule %s: %w", res.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit evaluation %s: %w", id, err)
	}
	return nil
}

// List returns the most recent evaluations, newest first.
func (r *Recorder) List(ctx context.Context, limit int) ([]EvaluationSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []EvaluationSummary
	if err := r.queries.Select(ctx, "list-evaluations", &out, limit); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return out, nil
}

// Get returns one evaluation and its rule outcomes in reported order.
func (r *Recorder) Get(ctx context.Context, id types.EvaluationID) (EvaluationSummary, []RuleOutcome, error) {
	var summary EvaluationSummary
	if err := r.queries.Get(ctx, "get-evaluation", &summary, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EvaluationSummary{}, nil, fmt.Errorf("%w: %s", ErrEvaluationNotFound, id)
		}
		return EvaluationSummary{}, nil, fmt.Errorf("get evaluation %s: %w", id, err)
	}

	var outcomes []RuleOutcome
	if err := r.queries.Select(ctx, "list-rule-results", &outcomes, string(id)); err != nil {
		return EvaluationSummary{}, nil, fmt.Errorf("list results of %s: %w", id, err)
	}
	return summary, outcomes, nil
}
