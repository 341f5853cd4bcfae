// Package cli implements the beesmart command line.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/entrypoint"
	"github.com/beesmart/beesmart/internal/logging"
)

// app carries the state shared by every subcommand. Configuration is read
// from the environment before each command runs; flags override it.
type app struct {
	version string
	dbPath  string
	verbose bool

	cfg *config.Config
	log *logrus.Logger
}

// NewRootCommand builds the beesmart command tree. Running it without a
// subcommand starts the server.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:   "beesmart",
		Short: "Bee-Smart apiary records service",
		Long: `Bee-Smart keeps apiaries, hives, inspections, harvests and products
in one store and serves them over a JSON API.

Configuration is read from the environment and an optional .env file
(DATABASE_DRIVER, DATABASE_PATH, BLOB_DRIVER, AUTH_MODE, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides DATABASE_PATH)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newExportCommand(a),
		newSeedProductsCommand(a),
		newSeedDemoCommand(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command) {
	a.cfg = config.NewConfig()
	if a.dbPath != "" {
		a.cfg.Database.Path = a.dbPath
	}
	if a.verbose {
		a.cfg.Log.Level = "debug"
	}
	a.log = logging.NewWithOutput(a.cfg.Log, cmd.ErrOrStderr())
}

// openStore opens the configured store for one-shot commands.
func (a *app) openStore() (*entrypoint.Store, error) {
	return entrypoint.OpenStore(a.cfg.Database, nil, a.log)
}

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	return entrypoint.Run(a.cfg, a.log, a.version)
}
