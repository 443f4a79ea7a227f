package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/componentize/repodata/queue"
)

// QueueCmd inspects and manages the ingestion queue
var QueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage the ingestion queue",
	Long: `Inspect and manage the ingestion queue.

Examples:
  repodata queue ls             # List queued ingestions
  repodata queue ls --json      # List as JSON
  repodata queue rm <id>        # Remove a queued ingestion`,
}

var queueLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List queued ingestions",
	RunE:  runQueueLs,
}

var queueRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a queued ingestion",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueRm,
}

func init() {
	queueLsCmd.Flags().Bool("json", false, "Output as JSON")
	addConfigFlag(queueLsCmd)
	addConfigFlag(queueRmCmd)
	QueueCmd.AddCommand(queueLsCmd)
	QueueCmd.AddCommand(queueRmCmd)
}

func runQueueLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ingestions, err := queue.NewStore(database).List(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		serialized := make([]queue.Serialized, 0, len(ingestions))
		for _, ing := range ingestions {
			serialized = append(serialized, ing.Serialize())
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(serialized)
	}

	if len(ingestions) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tURL\tTAG\tATTEMPTS\tSTATE\tCREATED")
	for _, ing := range ingestions {
		state := "pending"
		if ing.IsInProgress() {
			state = "running"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			ing.ID, ing.URL, ing.Tag, ing.Attempts, state,
			ing.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runQueueRm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := queue.NewStore(database).Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed ingestion %s\n", args[0])
	return nil
}
