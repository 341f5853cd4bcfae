package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/entities"
)

func newMigrateCommand(a *app) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Bring the configured store up to the latest schema version and list
the applied steps.

Examples:
  beesmart migrate                 # Apply pending migrations
  beesmart migrate --status        # Show the schema version without changing anything
  beesmart migrate --db ./bees.db  # Migrate a specific SQLite file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status {
				return a.migrateStatus(cmd)
			}
			return a.migrate(cmd)
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Report the schema version only")
	return cmd
}

func (a *app) migrate(cmd *cobra.Command) error {
	db, err := database.NewDatabase(a.cfg.Database, a.log)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.AppliedMigrations(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
	for _, m := range applied {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.Version, m.Name, m.AppliedAt.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Schema is at version %d\n", database.LatestVersion())
	return nil
}

func (a *app) migrateStatus(cmd *cobra.Command) error {
	db, err := database.Open(a.cfg.Database, a.log)
	if err != nil {
		return err
	}
	defer db.Close()

	current, err := schemaVersion(commandContext(cmd), db)
	if err != nil {
		return err
	}

	latest := database.LatestVersion()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Schema version: %d (latest %d)\n", current, latest)
	if current < latest {
		fmt.Fprintf(out, "%d migration(s) pending\n", latest-current)
	} else {
		fmt.Fprintln(out, "Schema is up to date")
	}
	return nil
}

// schemaVersion is 0 for a store that has never been migrated.
func schemaVersion(ctx context.Context, db *database.Database) (int, error) {
	if !db.DB.Migrator().HasTable(&entities.SchemaMigration{}) {
		return 0, nil
	}
	return db.SchemaVersion(ctx)
}
