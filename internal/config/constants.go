package config

// Database drivers
const (
	DriverSQLite     = "sqlite"      // mattn/go-sqlite3, requires cgo
	DriverSQLitePure = "sqlite_pure" // glebarez/sqlite, pure Go
	DriverPostgres   = "postgres"
)

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./beesmart.db"

	// DefaultBlobDir is where photos are kept when BLOB_DRIVER=fs
	DefaultBlobDir = "./photos"

	// DefaultExportDir is where workbook exports are written
	DefaultExportDir = "./exports"
)
