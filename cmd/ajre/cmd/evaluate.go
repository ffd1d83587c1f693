package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ggerhardt/ajre-rules-engine/internal/rules"
	"github.com/ggerhardt/ajre-rules-engine/internal/ruleset"
	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a rule set against a document",
	Example: `  ajre evaluate --rules rules.yaml --document order.json
  ajre evaluate --rules rules.json --document order.json --context limits.json --output text`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().String("rules", "", "rule set file (JSON or YAML)")
	evaluateCmd.Flags().String("document", "", "document file (JSON or YAML)")
	evaluateCmd.Flags().String("context", "", "side context file referenced by _context. paths")
	evaluateCmd.Flags().Int("context-limit", types.DefaultContextLimit, "max contexts generated per rule")
	evaluateCmd.Flags().Duration("time-limit", types.DefaultTimeLimitSeconds*time.Second, "context generation time limit")
	evaluateCmd.Flags().String("time-budget", "batch", "time limit scope (batch, rule)")
	evaluateCmd.Flags().Bool("first-context", false, "stop each looped rule at its first satisfying context")
	evaluateCmd.Flags().Bool("record", false, "record the evaluation in the history database")
	evaluateCmd.Flags().StringP("output", "o", "json", "output format (json, text)")
	_ = evaluateCmd.MarkFlagRequired("rules")
	_ = evaluateCmd.MarkFlagRequired("document")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rulesPath, _ := cmd.Flags().GetString("rules")
	docPath, _ := cmd.Flags().GetString("document")
	contextPath, _ := cmd.Flags().GetString("context")
	firstContext, _ := cmd.Flags().GetBool("first-context")
	record, _ := cmd.Flags().GetBool("record")
	output, _ := cmd.Flags().GetString("output")

	if output != "json" && output != "text" {
		return fmt.Errorf("unknown output format %q (want json or text)", output)
	}

	loader, err := ruleset.NewLoader()
	if err != nil {
		return err
	}
	ruleList, err := loader.LoadRulesFile(rulesPath)
	if err != nil {
		return err
	}
	doc, err := ruleset.LoadDocumentFile(docPath)
	if err != nil {
		return err
	}
	var side types.Document
	if contextPath != "" {
		if side, err = ruleset.LoadDocumentFile(contextPath); err != nil {
			return err
		}
	}

	opts := cfg.Engine.Options()
	if firstContext {
		opts.ReturnAllContexts = false
	}

	id := types.NewEvaluationID()
	evalLogger := logger.With(slog.String("evaluation_id", string(id)))

	start := time.Now()
	results := rules.NewEngine(evalLogger).Evaluate(ctx, doc, ruleList, side, opts)
	duration := time.Since(start)

	if record {
		if err := recordEvaluation(ctx, id, len(ruleList), results, duration); err != nil {
			return err
		}
		evalLogger.Info("evaluation recorded")
	}

	if output == "text" {
		return writeText(cmd.OutOrStdout(), id, len(ruleList), results, duration)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		EvaluationID types.EvaluationID `json:"evaluationId"`
		Results      []rules.RuleResult `json:"results"`
	}{id, results})
}

func recordEvaluation(ctx context.Context, id types.EvaluationID, ruleCount int, results []rules.RuleResult, duration time.Duration) error {
	recorder, closeDB, err := openRecorder(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	return recorder.Record(ctx, id, ruleCount, results, duration)
}

// writeText prints one line per reported rule followed by its errors.
func writeText(w io.Writer, id types.EvaluationID, ruleCount int, results []rules.RuleResult, duration time.Duration) error {
	satisfied := 0
	for _, r := range results {
		if r.Satisfied {
			satisfied++
		}
	}

	fmt.Fprintf(w, "evaluation %s: %s rules, %s reported, %s satisfied in %s\n",
		id,
		humanize.Comma(int64(ruleCount)),
		humanize.Comma(int64(len(results))),
		humanize.Comma(int64(satisfied)),
		duration.Round(time.Microsecond),
	)

	for _, r := range results {
		state := "not satisfied"
		if r.Satisfied {
			state = "satisfied"
		}
		line := fmt.Sprintf("  %s [%s] %s", r.ID, r.Keyword, state)
		if r.Looped {
			line += fmt.Sprintf(", %s of %s contexts",
				humanize.Comma(int64(len(r.Contexts))), humanize.Comma(int64(r.ContextCount)))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, e := range r.Errors {
			fmt.Fprintf(w, "    %s: %s\n", e.Kind, e.Cause)
		}
	}

	return nil
}
