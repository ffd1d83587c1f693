package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ggerhardt/ajre-rules-engine/internal/core/db"
	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded evaluations",
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show EVALUATION_ID",
	Short: "Show the reported rules of one evaluation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().Int("limit", 20, "number of evaluations to list")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	limit, _ := cmd.Flags().GetInt("limit")

	recorder, closeDB, err := openRecorder(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	list, err := recorder.List(ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range list {
		fmt.Fprintf(out, "%s  %-14s %s rules, %s reported, %s satisfied, %s\n",
			s.EvaluationID,
			humanize.Time(s.CreatedAt()),
			humanize.Comma(int64(s.RuleCount)),
			humanize.Comma(int64(s.ReportedCount)),
			humanize.Comma(int64(s.SatisfiedCount)),
			s.Duration(),
		)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := types.ParseEvaluationID(args[0])
	if err != nil {
		return fmt.Errorf("invalid evaluation ID %q: %w", args[0], err)
	}

	recorder, closeDB, err := openRecorder(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	summary, outcomes, err := recorder.Get(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "evaluation %s at %s (%s)\n", summary.EvaluationID, summary.CreatedAt().Format("2006-01-02 15:04:05"), summary.Duration())
	for _, o := range outcomes {
		state := "not satisfied"
		if o.Satisfied {
			state = "satisfied"
		}
		fmt.Fprintf(out, "  %s [%s] %s, %s contexts, %d errors\n",
			o.RuleID, o.Keyword, state, humanize.Comma(int64(o.ContextCount)), o.ErrorCount)
	}
	return nil
}

func openRecorder(ctx context.Context) (*db.Recorder, func(), error) {
	database, err := openHistory(ctx)
	if err != nil {
		return nil, nil, err
	}

	recorder, err := db.NewRecorder(database)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return recorder, func() { database.Close() }, nil
}
