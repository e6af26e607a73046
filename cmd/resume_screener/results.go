package main

import (
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show stored screening results for a job",
	RunE:  runResults,
}

var (
	resultsJobID    string
	resultsTop      int
	resultsMinScore float64
)

func init() {
	resultsCmd.Flags().StringVarP(&resultsJobID, "job", "j", "", "Job ID (required)")
	resultsCmd.Flags().IntVar(&resultsTop, "top", 0, "Only the top N results (all when 0)")
	resultsCmd.Flags().Float64Var(&resultsMinScore, "min-score", 0, "Only results with an overall score at least this high")
	_ = resultsCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, _ []string) error {
	if resultsMinScore < 0 || resultsMinScore > 1 {
		return types.NewError(types.KindInvalidInput, "--min-score must be in [0,1]")
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	job, err := a.store.GetJob(ctx, resultsJobID)
	if err != nil {
		return err
	}
	if job == nil {
		return types.NewError(types.KindNotFound, "job %s not found", resultsJobID)
	}

	results, err := a.store.ListResults(ctx, resultsJobID)
	if err != nil {
		return err
	}
	results = ranking.TopK(ranking.FilterByThreshold(results, resultsMinScore), resultsTop)

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	rows := resultsTop
	if rows <= 0 {
		rows = len(results)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintResults(resultsJobID, results, rows)
	return nil
}
