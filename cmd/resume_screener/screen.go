package main

import (
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen resumes against a job and rank them",
	Long: `Score resumes against a job, rank them and store the ranked results.

With a database, --job names a stored job and --resume names stored resumes (all resumes when omitted).
Without one, pass --job-file and --resume-file/--resume-dir to screen text files in a single run.`,
	Example: `  resume_screener screen --job backend-2024
  resume_screener screen --job-file job.txt --resume-dir resumes/ --top 5`,
	RunE: runScreen,
}

var (
	screenJobID       string
	screenJobFile     string
	screenJobTitle    string
	screenResumeIDs   []string
	screenResumeFiles []string
	screenResumeDir   string
	screenTop         int
)

func init() {
	screenCmd.Flags().StringVarP(&screenJobID, "job", "j", "", "Job ID")
	screenCmd.Flags().StringVar(&screenJobFile, "job-file", "", "Job description file to ingest before screening")
	screenCmd.Flags().StringVar(&screenJobTitle, "job-title", "", "Title for --job-file (first line when empty)")
	screenCmd.Flags().StringSliceVarP(&screenResumeIDs, "resume", "r", nil, "Resume IDs to screen (all when empty)")
	screenCmd.Flags().StringSliceVar(&screenResumeFiles, "resume-file", nil, "Resume text files to ingest and screen")
	screenCmd.Flags().StringVar(&screenResumeDir, "resume-dir", "", "Directory of resume .txt/.md files to ingest and screen")
	screenCmd.Flags().IntVar(&screenTop, "top", observability.DefaultMaxRows, "Rows to print")

	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, _ []string) error {
	if screenJobID == "" && screenJobFile == "" {
		return types.NewError(types.KindInvalidInput, "either --job or --job-file must be provided")
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	jobID := screenJobID
	if screenJobFile != "" {
		job, err := ingestJobFile(cmd, a, screenJobFile, screenJobID, screenJobTitle, nil)
		if err != nil {
			return err
		}
		jobID = job.ID
	}

	files := append([]string(nil), screenResumeFiles...)
	if screenResumeDir != "" {
		dirFiles, err := textFiles(screenResumeDir)
		if err != nil {
			return err
		}
		files = append(files, dirFiles...)
	}

	resumeIDs := append([]string(nil), screenResumeIDs...)
	for _, f := range files {
		resume, err := ingestResumeFile(cmd, a, f, "", "")
		if err != nil {
			return err
		}
		resumeIDs = append(resumeIDs, resume.ID)
	}

	outcome, err := a.orchestrator.ScreenJob(cmd.Context(), jobID, resumeIDs)
	if err != nil {
		return err
	}
	a.checkOutcome(outcome)

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), outcome)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintOutcome(outcome, screenTop)
	return nil
}
