package main

import (
	"github.com/jonathan/resume-screener/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing ingestion, screening, scoring and result endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()
	a.warnIfEphemeral()

	srv, err := server.New(server.Config{Port: a.cfg.Server.Port}, a.store, a.orchestrator, a.ingester, a.logger)
	if err != nil {
		return err
	}
	return srv.Start(cmd.Context())
}
