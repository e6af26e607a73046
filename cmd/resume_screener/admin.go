package main

import (
	"fmt"

	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	RunE:  runMigrate,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored job, resume and result counts",
	RunE:  runStats,
}

var printSchema bool

func init() {
	migrateCmd.Flags().BoolVar(&printSchema, "print", false, "Print the schema instead of applying it")
	rootCmd.AddCommand(migrateCmd, statsCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if printSchema {
		_, err := fmt.Fprint(cmd.OutOrStdout(), db.Schema())
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return types.NewError(types.KindConfiguration, "DATABASE_URL is required for migrate")
	}

	database, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), stats)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintStats(stats)
	return nil
}
