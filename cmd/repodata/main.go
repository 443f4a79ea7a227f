package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/componentize/repodata/cmd/repodata/commands"
	"github.com/componentize/repodata/logger"
)

var rootCmd = &cobra.Command{
	Use:   "repodata",
	Short: "repodata - Component registry ingestion service",
	Long: `repodata - Component registry ingestion and version data service.

Ingests tagged releases of source repositories, normalizes their manifests,
and serves the materialized version records over an HTTP API.

Available commands:
  serve   - Run the ingestion pipeline and HTTP API
  enqueue - Queue a (url, tag) pair for ingestion
  queue   - Inspect and manage the ingestion queue
  db      - Manage database operations
  version - Show version information

Examples:
  repodata serve                                         # Run the service
  repodata enqueue https://github.com/acme/o-table v1.2.3
  repodata queue ls                                      # List queued ingestions
  repodata db migrate                                    # Apply pending migrations`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("log-json")
		if err := logger.InitializeWithLevel(jsonOutput, logger.VerbosityToLevel(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.EnqueueCmd)
	rootCmd.AddCommand(commands.QueueCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
