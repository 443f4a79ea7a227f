package commands

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
)

// DbCmd manages database operations
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the repodata database",
	Long: `Manage database operations.

Examples:
  repodata db migrate    # Apply pending schema migrations
  repodata db stats      # Show queue and version statistics`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue and version statistics",
	RunE:  runDbStats,
}

func init() {
	addConfigFlag(dbMigrateCmd)
	addConfigFlag(dbStatsCmd)
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// openDatabase migrates as part of opening
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Println("Database schema is up to date")
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	var queued, running int
	err = database.QueryRow(`
		SELECT COUNT(*), COUNT(claimed_at)
		FROM ingestion_queue
	`).Scan(&queued, &running)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to query queue stats: %w", err)
	}

	var versions, repos int
	err = database.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT repo_id)
		FROM versions
	`).Scan(&versions, &repos)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to query version stats: %w", err)
	}

	fmt.Println("Database Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Database Path:   %s\n", cfg.Database.Path)
	fmt.Printf("Queued:          %d (%d running)\n", queued, running)
	fmt.Printf("Versions:        %d across %d repos\n", versions, repos)
	return nil
}
