package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/exporters"
	"github.com/beesmart/beesmart/internal/tasks"
	"github.com/beesmart/beesmart/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportController serves the workbook export.
type ExportController struct {
	exporter  exporters.WorkbookWriter
	queue     TaskQueue
	exportDir string
	auditor   Auditor
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewExportController creates an ExportController. queue may be nil, in
// which case background exports are unavailable.
func NewExportController(exporter exporters.WorkbookWriter, queue TaskQueue, exportDir string, auditor Auditor, log logrus.FieldLogger) *ExportController {
	return &ExportController{
		exporter:  exporter,
		queue:     queue,
		exportDir: exportDir,
		auditor:   auditor,
		log:       log.WithField("controller", "export"),
		now:       time.Now,
	}
}

func (ec *ExportController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/export/workbook", ec.Download)
	group.POST("/export/workbook", ec.Enqueue)
}

// Download renders the workbook and sends it as an attachment.
// GET /api/export/workbook
func (ec *ExportController) Download(c *gin.Context) {
	filename := utils.ExportFilename(exporters.FilePrefix, ec.now())
	userID := auth.GetUserID(c)

	var buf bytes.Buffer
	result, err := ec.exporter.Write(c.Request.Context(), &buf)
	if ec.auditor != nil {
		ec.auditor.LogExport(userID, filename, err)
	}
	if err != nil {
		respondInternalError(c, ec.log, err, "export workbook")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(result.Rows()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Enqueue schedules a workbook export into the export directory.
// POST /api/export/workbook
func (ec *ExportController) Enqueue(c *gin.Context) {
	if ec.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is disabled")
		return
	}
	if ec.exportDir == "" {
		respondError(c, http.StatusServiceUnavailable, "export directory is not configured")
		return
	}

	ids, err := ec.queue.Add(tasks.ExportWorkbookTask{
		Dir:    ec.exportDir,
		UserID: auth.GetUserID(c),
	}).Save()
	if err != nil {
		respondInternalError(c, ec.log, err, "enqueue export")
		return
	}
	respondAccepted(c, "export enqueued", gin.H{"task_id": ids[0]})
}
