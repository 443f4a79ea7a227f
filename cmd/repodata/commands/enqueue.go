package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/componentize/repodata/queue"
)

// EnqueueCmd queues a (url, tag) pair for ingestion
var EnqueueCmd = &cobra.Command{
	Use:   "enqueue <url> <tag>",
	Short: "Queue a repository tag for ingestion",
	Long: `Queue a (url, tag) pair for ingestion.

The URL must be an https repository URL and the tag a semantic version.
Pairs that are already queued or already materialized are rejected.

Examples:
  repodata enqueue https://github.com/acme/o-table v1.2.3`,
	Args: cobra.ExactArgs(2),
	RunE: runEnqueue,
}

func init() {
	addConfigFlag(EnqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ing, err := queue.NewStore(database).Enqueue(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("Queued %s @ %s (id %s)\n", ing.URL, ing.Tag, ing.ID)
	return nil
}
