package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	auditsvc "github.com/beesmart/beesmart/internal/audit"
	auditrepo "github.com/beesmart/beesmart/internal/database/audit"
	"github.com/beesmart/beesmart/internal/exporters"
)

func newExportCommand(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an xlsx workbook of the whole store",
		Long: `Write the Apiaries, Hives, Inspections and Harvests sheets to a
timestamped workbook (beesmart-YYYYMMDD-HHMMSS.xlsx).

Examples:
  beesmart export                  # Write to EXPORT_DIR
  beesmart export --dir ./backups  # Write to a specific directory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Export.Dir
			}
			return a.export(cmd, dir, time.Now())
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (default EXPORT_DIR)")
	return cmd
}

func (a *app) export(cmd *cobra.Command, dir string, now time.Time) error {
	if dir == "" {
		return errors.New("export directory is required")
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	audit := auditsvc.NewService(auditrepo.NewRepository(store.DB.DB), a.log)
	defer audit.Flush()

	ctx := commandContext(cmd)
	exporter := exporters.NewWorkbookExporter(store.Overviews, a.log)
	path, result, err := exporter.ExportToDir(ctx, dir, now)
	audit.LogExport(0, filepath.Base(path), err)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d apiaries, %d hives, %d inspections, %d harvests to %s\n",
		result.Apiaries, result.Hives, result.Inspections, result.Harvests, path)
	return nil
}
