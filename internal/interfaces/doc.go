// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - ApiaryStore, HiveStore, InspectionStore, ProductStore, HarvestStore:
//     the repository surfaces the controllers use (internal/http/stores.go)
//   - ApiaryReader, HiveReader, InspectionReader, HarvestReader, ProductReader:
//     read access for the projections (internal/services/interfaces.go)
//   - UserRepository: accounts for sign-in (internal/auth/service.go)
//
// ## Projections and Export
//
//   - Overviews: joined list screens (internal/http/stores.go)
//   - Source, WorkbookWriter: workbook export (internal/exporters)
//
// ## Side Effects
//
//   - Auditor, AuditLister, EventLogger: audit trail (internal/http, internal/auth)
//   - blob.Store: photo storage with filesystem, memory and S3 drivers
//   - TaskQueue, scheduler.Queue: background work on the backlite queue
//
// # Adding a New Entity
//
//  1. Add the entity and its patch type to internal/entities/beekeeping.go
//     and a migration step to internal/database/migrations.go.
//
//  2. Create a sub-package: internal/database/<entity>/
//
//     type Repository struct { db *gorm.DB; log logrus.FieldLogger }
//
//     func NewRepository(db *gorm.DB, log logrus.FieldLogger) *Repository
//
//     Wrap storage errors with database.Fail so constraint failures surface
//     as *database.ConstraintViolation.
//
//  3. Declare the narrow store interface the controller needs in
//     internal/http/stores.go and register the controller in router.go.
//
//  4. Add a compile-time check to checks.go:
//
//     var _ http.SomethingStore = (*something.Repository)(nil)
//
// # Adding a New Blob Driver
//
// Implement blob.Store, add a case to blob.Open and a check to checks.go.
// Drivers that cannot sign URLs return blob.ErrUnsupported from PresignURL;
// the photo endpoints then fall back to the download URL.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
