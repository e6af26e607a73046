package main

import (
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one resume against one job without storing the result",
	Long:  "Score a stored resume (--resume) or a resume file (--resume-file) against a stored job (--job) or a job file (--job-file).",
	RunE:  runScore,
}

var (
	scoreResumeID   string
	scoreResumeFile string
	scoreJobID      string
	scoreJobFile    string
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreResumeID, "resume", "r", "", "Stored resume ID")
	scoreCmd.Flags().StringVar(&scoreResumeFile, "resume-file", "", "Resume text file")
	scoreCmd.Flags().StringVarP(&scoreJobID, "job", "j", "", "Stored job ID")
	scoreCmd.Flags().StringVar(&scoreJobFile, "job-file", "", "Job description file")
	scoreCmd.MarkFlagsOneRequired("resume", "resume-file")
	scoreCmd.MarkFlagsMutuallyExclusive("resume", "resume-file")
	scoreCmd.MarkFlagsOneRequired("job", "job-file")
	scoreCmd.MarkFlagsMutuallyExclusive("job", "job-file")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	var job *types.JobPosting
	if scoreJobFile != "" {
		job, err = ingestJobFile(cmd, a, scoreJobFile, "", "", nil)
	} else {
		job, err = a.store.GetJob(ctx, scoreJobID)
		if err == nil && job == nil {
			err = types.NewError(types.KindNotFound, "job %s not found", scoreJobID)
		}
	}
	if err != nil {
		return err
	}

	var resume *types.Resume
	if scoreResumeFile != "" {
		resume, err = ingestResumeFile(cmd, a, scoreResumeFile, "", "")
	} else {
		resume, err = a.store.GetResume(ctx, scoreResumeID)
		if err == nil && resume == nil {
			err = types.NewError(types.KindNotFound, "resume %s not found", scoreResumeID)
		}
	}
	if err != nil {
		return err
	}

	result, err := a.orchestrator.ScoreOne(ctx, resume, job)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintResult(result)
	return nil
}
