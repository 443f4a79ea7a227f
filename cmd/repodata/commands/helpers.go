package commands

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/componentize/repodata/config"
	"github.com/componentize/repodata/db"
	"github.com/componentize/repodata/errors"
	"github.com/componentize/repodata/logger"
)

// addConfigFlag registers the shared --config flag on a command
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to a repodata.toml config file (default: ./repodata.toml)")
}

// loadConfig reads configuration from the --config flag path when given,
// else from the default search path and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// openDatabase opens and migrates the configured database
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	log := logger.Named("db")
	database, err := db.Open(cfg.Database.Path, log)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Migrate(database, log); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return database, nil
}
