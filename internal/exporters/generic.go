package exporters

import (
	"context"
	"io"
)

// WorkbookWriter writes a full workbook of the store to w.
type WorkbookWriter interface {
	Write(ctx context.Context, w io.Writer) (ExportResult, error)
}

type ExportResult struct {
	Apiaries    int `json:"apiaries"`
	Hives       int `json:"hives"`
	Inspections int `json:"inspections"`
	Harvests    int `json:"harvests"`
}

// Rows is the total number of data rows written across all sheets.
func (r ExportResult) Rows() int {
	return r.Apiaries + r.Hives + r.Inspections + r.Harvests
}
