package http

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/blob"
	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/demo"
	"github.com/beesmart/beesmart/internal/exporters"
	"github.com/beesmart/beesmart/internal/metrics"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Log      logrus.FieldLogger
	Database *database.Database
	Version  string

	// Repositories
	Apiaries    ApiaryStore
	Hives       HiveStore
	Inspections InspectionStore
	Products    ProductStore
	Harvests    HarvestStore

	// Joined list screens
	Overviews Overviews

	// Audit trail (optional)
	Auditor     Auditor
	AuditEvents AuditLister

	// Photo storage (optional)
	Blobs        blob.Store
	MaxPhotoSize int64
	PresignTTL   time.Duration

	// Workbook export
	Exporter  exporters.WorkbookWriter
	ExportDir string

	// Task queue client (optional)
	TaskQueue          TaskQueue
	AuditRetentionDays int

	// Authentication
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController

	// Demo mode blocks writes (optional)
	Demo *demo.Middleware

	// Prometheus collectors (optional)
	Metrics *metrics.Metrics
}
