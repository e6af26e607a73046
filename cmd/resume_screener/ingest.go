package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestResumeCmd = &cobra.Command{
	Use:   "ingest-resume",
	Short: "Ingest a resume from an extracted text file",
	Long:  "Read already-extracted resume text, derive skills, experience, contact fields and an embedding, and store the resume.",
	RunE:  runIngestResume,
}

var ingestJobCmd = &cobra.Command{
	Use:   "ingest-job",
	Short: "Ingest a job posting from a text file",
	Long:  "Read a job description, derive its required skills (or use --skills) and an embedding, and store the job.",
	RunE:  runIngestJob,
}

var (
	resumeFile   string
	resumeID     string
	resumeName   string
	jobFile      string
	jobID        string
	jobTitle     string
	jobSkillList []string
)

func init() {
	ingestResumeCmd.Flags().StringVarP(&resumeFile, "file", "f", "", "Path to resume text file (required)")
	ingestResumeCmd.Flags().StringVar(&resumeID, "id", "", "Resume ID (file name without extension when empty)")
	ingestResumeCmd.Flags().StringVar(&resumeName, "name", "", "Candidate name (first line of the resume when empty)")
	_ = ingestResumeCmd.MarkFlagRequired("file")

	ingestJobCmd.Flags().StringVarP(&jobFile, "file", "f", "", "Path to job description text file (required)")
	ingestJobCmd.Flags().StringVar(&jobID, "id", "", "Job ID (file name without extension when empty)")
	ingestJobCmd.Flags().StringVar(&jobTitle, "title", "", "Job title (first line of the description when empty)")
	ingestJobCmd.Flags().StringSliceVar(&jobSkillList, "skills", nil, "Required skills, comma separated (extracted from the description when empty)")
	_ = ingestJobCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(ingestResumeCmd, ingestJobCmd)
}

func runIngestResume(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	resume, err := ingestResumeFile(cmd, a, resumeFile, resumeID, resumeName)
	if err != nil {
		return err
	}
	a.warnIfEphemeral()

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), resume)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintResume(resume)
	return nil
}

func runIngestJob(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	job, err := ingestJobFile(cmd, a, jobFile, jobID, jobTitle, jobSkillList)
	if err != nil {
		return err
	}
	a.warnIfEphemeral()

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), job)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintJob(job)
	return nil
}

func ingestResumeFile(cmd *cobra.Command, a *app, path, id, name string) (*types.Resume, error) {
	content, err := ingestion.ReadText(path)
	if err != nil {
		return nil, types.WrapError(types.KindInvalidInput, err, "failed to read resume %s", path)
	}
	if id == "" {
		id = idFromPath(path)
	}
	return a.ingester.IngestResume(cmd.Context(), ingestion.ResumeInput{
		ID:            id,
		CandidateName: name,
		Content:       content,
	})
}

func ingestJobFile(cmd *cobra.Command, a *app, path, id, title string, skillNames []string) (*types.JobPosting, error) {
	content, err := ingestion.ReadText(path)
	if err != nil {
		return nil, types.WrapError(types.KindInvalidInput, err, "failed to read job %s", path)
	}
	if id == "" {
		id = idFromPath(path)
	}
	if title == "" {
		title = ingestion.FirstLine(ingestion.CleanContent(content))
	}
	return a.ingester.IngestJob(cmd.Context(), ingestion.JobInput{
		ID:             id,
		Title:          title,
		Description:    content,
		RequiredSkills: skillNames,
	})
}

// idFromPath derives a record id from a file name, e.g. resumes/ada.txt -> ada
func idFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// textFiles lists the .txt and .md files of dir in name order
func textFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (a *app) warnIfEphemeral() {
	if !a.persistent {
		a.logger.Warn("DATABASE_URL not set; record was not persisted", zap.String("hint", "set DATABASE_URL to keep ingested records"))
	}
}
