package exporters

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/beesmart/beesmart/internal/entities"
	"github.com/beesmart/beesmart/internal/utils"
)

// Sheet names, in workbook order.
const (
	SheetApiaries    = "Apiaries"
	SheetHives       = "Hives"
	SheetInspections = "Inspections"
	SheetHarvests    = "Harvests"
)

// FilePrefix starts every exported workbook name.
const FilePrefix = "beesmart"

// Source supplies the joined views the sheets are built from.
type Source interface {
	ApiarySummaries(ctx context.Context) ([]entities.ApiarySummary, error)
	HiveOverviews(ctx context.Context) ([]entities.HiveOverview, error)
	InspectionDetails(ctx context.Context) ([]entities.InspectionDetail, error)
	HarvestDetails(ctx context.Context) ([]entities.HarvestDetail, error)
}

// WorkbookExporter renders the store as an xlsx workbook with one sheet per
// entity list.
type WorkbookExporter struct {
	source Source
	log    logrus.FieldLogger
}

func NewWorkbookExporter(source Source, log logrus.FieldLogger) *WorkbookExporter {
	return &WorkbookExporter{source: source, log: log.WithField("component", "exporter")}
}

// Build assembles the workbook in memory. The caller closes the file.
func (e *WorkbookExporter) Build(ctx context.Context) (*excelize.File, ExportResult, error) {
	var result ExportResult

	apiaries, err := e.source.ApiarySummaries(ctx)
	if err != nil {
		return nil, result, fmt.Errorf("load apiaries: %w", err)
	}
	hives, err := e.source.HiveOverviews(ctx)
	if err != nil {
		return nil, result, fmt.Errorf("load hives: %w", err)
	}
	inspections, err := e.source.InspectionDetails(ctx)
	if err != nil {
		return nil, result, fmt.Errorf("load inspections: %w", err)
	}
	harvests, err := e.source.HarvestDetails(ctx)
	if err != nil {
		return nil, result, fmt.Errorf("load harvests: %w", err)
	}

	f := excelize.NewFile()
	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetApiaries, apiaryHeader, apiaryRows(apiaries)},
		{SheetHives, hiveHeader, hiveRows(hives)},
		{SheetInspections, inspectionHeader, inspectionRows(inspections)},
		{SheetHarvests, harvestHeader, harvestRows(harvests)},
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, result, err
	}

	for i, s := range sheets {
		if i == 0 {
			err = f.SetSheetName("Sheet1", s.name)
		} else {
			_, err = f.NewSheet(s.name)
		}
		if err == nil {
			err = writeSheet(f, s.name, s.header, s.rows, headerStyle)
		}
		if err != nil {
			f.Close()
			return nil, result, fmt.Errorf("write sheet %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	result = ExportResult{
		Apiaries:    len(apiaries),
		Hives:       len(hives),
		Inspections: len(inspections),
		Harvests:    len(harvests),
	}
	return f, result, nil
}

// Write streams the workbook to w.
func (e *WorkbookExporter) Write(ctx context.Context, w io.Writer) (ExportResult, error) {
	f, result, err := e.Build(ctx)
	if err != nil {
		return result, err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return result, fmt.Errorf("write workbook: %w", err)
	}
	return result, nil
}

// ExportToDir saves the workbook under dir with a timestamped name and
// returns its path.
func (e *WorkbookExporter) ExportToDir(ctx context.Context, dir string, now time.Time) (string, ExportResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	f, result, err := e.Build(ctx)
	if err != nil {
		return "", result, err
	}
	defer f.Close()

	path := filepath.Join(dir, utils.ExportFilename(FilePrefix, now))
	if err := f.SaveAs(path); err != nil {
		return "", result, fmt.Errorf("save workbook: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"path": path,
		"rows": result.Rows(),
	}).Info("Workbook exported")
	return path, result, nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

var apiaryHeader = []any{"ID", "Name", "Description", "Municipality", "Latitude", "Longitude", "Creation date", "Total hives", "Active hives", "Active %"}

func apiaryRows(list []entities.ApiarySummary) [][]any {
	rows := make([][]any, 0, len(list))
	for _, a := range list {
		rows = append(rows, []any{
			a.ID, a.Name, str(a.Description), str(a.Municipality),
			num(a.Latitude), num(a.Longitude), a.CreationDate,
			a.TotalHives, a.ActiveHives, a.ActivePercent,
		})
	}
	return rows
}

var hiveHeader = []any{"ID", "Code", "Apiary", "State", "Installation date", "Last inspection", "Observations"}

func hiveRows(list []entities.HiveOverview) [][]any {
	rows := make([][]any, 0, len(list))
	for _, h := range list {
		rows = append(rows, []any{
			h.ID, h.Code, h.ApiaryName, str(h.StateLabel), h.InstallationDate,
			str(h.LastInspectionDate), str(h.Observations),
		})
	}
	return rows
}

var inspectionHeader = []any{"ID", "Date", "Hive", "Apiary", "State", "Observations"}

func inspectionRows(list []entities.InspectionDetail) [][]any {
	rows := make([][]any, 0, len(list))
	for _, i := range list {
		rows = append(rows, []any{
			i.ID, i.InspectionDate, i.HiveCode, i.ApiaryName, str(i.StateLabel), str(i.Observations),
		})
	}
	return rows
}

var harvestHeader = []any{"ID", "Date", "Hive", "Apiary", "Product", "Quantity", "Observations"}

func harvestRows(list []entities.HarvestDetail) [][]any {
	rows := make([][]any, 0, len(list))
	for _, h := range list {
		rows = append(rows, []any{
			h.ID, h.HarvestDate, h.HiveCode, h.ApiaryName, h.ProductName, h.Quantity, str(h.Observations),
		})
	}
	return rows
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// num leaves the cell blank for a missing value.
func num(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
