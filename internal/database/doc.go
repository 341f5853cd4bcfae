// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup for sqlite, sqlite_pure and postgres
//	├── migrations.go    # Ordered, recorded schema steps
//	├── errors.go        # PersistenceError and ConstraintViolation
//	├── apiaries/        # Apiary CRUD, municipalities
//	├── hives/           # Hive CRUD, per-apiary counts
//	├── inspections/     # Inspection CRUD, last inspection, state propagation
//	├── products/        # Product catalog
//	├── harvests/        # Harvest CRUD, ad hoc products
//	├── users/           # User accounts
//	└── audit/           # Audit events
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type built on the shared handle:
//
//	db, err := database.NewDatabase(cfg.Database, log)
//
//	hivesRepo := hives.NewRepository(db.DB, log)
//	id, err := hivesRepo.Create(ctx, entities.Hive{Code: "C-001", ...})
//	hive, err := hivesRepo.GetByID(ctx, id) // nil, nil when missing
//
// # Errors
//
// Repository failures are *PersistenceError values carrying the operation,
// entity and id. Foreign key, NOT NULL and unique failures are
// *ConstraintViolation, which also matches errors.Is(err, ErrConstraint).
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<name>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB, log logrus.FieldLogger) constructor
//  4. Append a Migration creating its tables
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
