package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	auditsvc "github.com/beesmart/beesmart/internal/audit"
	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/blob"
	"github.com/beesmart/beesmart/internal/database/apiaries"
	"github.com/beesmart/beesmart/internal/database/harvests"
	"github.com/beesmart/beesmart/internal/database/hives"
	"github.com/beesmart/beesmart/internal/database/inspections"
	"github.com/beesmart/beesmart/internal/database/products"
	"github.com/beesmart/beesmart/internal/database/users"
	"github.com/beesmart/beesmart/internal/demo"
	"github.com/beesmart/beesmart/internal/exporters"
	"github.com/beesmart/beesmart/internal/http"
	"github.com/beesmart/beesmart/internal/scheduler"
	"github.com/beesmart/beesmart/internal/services"
	"github.com/beesmart/beesmart/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.ApiaryStore = (*apiaries.Repository)(nil)
var _ http.HiveStore = (*hives.Repository)(nil)
var _ http.HiveCounter = (*hives.Repository)(nil)
var _ http.InspectionStore = (*inspections.Repository)(nil)
var _ http.ProductStore = (*products.Repository)(nil)
var _ http.HarvestStore = (*harvests.Repository)(nil)

var _ services.ApiaryReader = (*apiaries.Repository)(nil)
var _ services.HiveReader = (*hives.Repository)(nil)
var _ services.InspectionReader = (*inspections.Repository)(nil)
var _ services.HarvestReader = (*harvests.Repository)(nil)
var _ services.ProductReader = (*products.Repository)(nil)

var _ auth.UserRepository = (*users.Repository)(nil)

// =============================================================================
// Projections and Export
// =============================================================================

var _ http.Overviews = (*services.OverviewService)(nil)
var _ exporters.Source = (*services.OverviewService)(nil)
var _ exporters.WorkbookWriter = (*exporters.WorkbookExporter)(nil)
var _ tasks.WorkbookExporter = (*exporters.WorkbookExporter)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ http.Auditor = (*auditsvc.Service)(nil)
var _ http.AuditLister = (*auditsvc.Service)(nil)
var _ auth.EventLogger = (*auditsvc.Service)(nil)
var _ tasks.ExportAuditor = (*auditsvc.Service)(nil)
var _ tasks.AuditEventCleaner = (*auditsvc.Service)(nil)

// =============================================================================
// Photos
// =============================================================================

var _ blob.Store = (*blob.Filesystem)(nil)
var _ blob.Store = (*blob.Memory)(nil)
var _ blob.Store = (*blob.S3)(nil)
var _ tasks.PhotoRefLister = (*apiaries.Repository)(nil)
var _ tasks.PhotoRefLister = (*hives.Repository)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Queue = (*tasks.Client)(nil)

// =============================================================================
// Demo Data
// =============================================================================

var _ demo.ApiaryCreator = (*apiaries.Repository)(nil)
var _ demo.HiveCreator = (*hives.Repository)(nil)
var _ demo.InspectionRecorder = (*inspections.Repository)(nil)
var _ demo.HarvestCreator = (*harvests.Repository)(nil)
var _ demo.ProductSeeder = (*products.Repository)(nil)
