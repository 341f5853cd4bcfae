package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/beesmart/beesmart/internal/entities"
)

// Migration is one ordered schema step. Up runs inside a transaction and
// must tolerate objects that already exist, so stores created before
// schema_migrations existed are adopted.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// Migrations lists every schema step in the order it is applied.
var Migrations = []Migration{
	{Version: 1, Name: "create_apiaries_and_hives", Up: createApiariesAndHives},
	{Version: 2, Name: "add_photo_refs", Up: addPhotoRefs},
	{Version: 3, Name: "create_inspections_products_harvests", Up: createInspectionsProductsHarvests},
	{Version: 4, Name: "add_listing_indexes", Up: addListingIndexes},
	{Version: 5, Name: "create_users_and_audit_events", Up: createUsersAndAuditEvents},
}

// LatestVersion is the schema version after every migration has run.
func LatestVersion() int {
	return Migrations[len(Migrations)-1].Version
}

// Initialize applies pending migrations. It is safe to call on every start.
func (d *Database) Initialize(ctx context.Context) error {
	db := d.DB.WithContext(ctx)

	if err := db.AutoMigrate(&entities.SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []int
	if err := db.Model(&entities.SchemaMigration{}).Pluck("version", &applied).Error; err != nil {
		return fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, m := range Migrations {
		if done[m.Version] {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&entities.SchemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		d.log.WithFields(logrus.Fields{
			"version": m.Version,
			"name":    m.Name,
		}).Info("Applied schema migration")
	}

	return nil
}

// SchemaVersion returns the highest applied migration, 0 for an empty store.
func (d *Database) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := d.DB.WithContext(ctx).
		Model(&entities.SchemaMigration{}).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// AppliedMigrations returns the recorded steps in version order.
func (d *Database) AppliedMigrations(ctx context.Context) ([]entities.SchemaMigration, error) {
	var out []entities.SchemaMigration
	err := d.DB.WithContext(ctx).Order("version ASC").Find(&out).Error
	return out, err
}

// Table shapes as of the first schema version. Later steps alter them.
type apiaryV1 struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Description  *string
	Latitude     *float64
	Longitude    *float64
	Municipality *string
	CreationDate string `gorm:"not null"`
	UserRef      *uint
}

func (apiaryV1) TableName() string { return "apiaries" }

type hiveV1 struct {
	ID               uint   `gorm:"primaryKey"`
	Code             string `gorm:"not null"`
	StateLabel       *string
	InstallationDate string `gorm:"not null"`
	Observations     *string
	ApiaryID         uint      `gorm:"not null"`
	Apiary           *apiaryV1 `gorm:"foreignKey:ApiaryID;constraint:OnDelete:CASCADE"`
}

func (hiveV1) TableName() string { return "hives" }

func createTables(tx *gorm.DB, models ...any) error {
	m := tx.Migrator()
	for _, model := range models {
		if m.HasTable(model) {
			continue
		}
		if err := m.CreateTable(model); err != nil {
			return err
		}
	}
	return nil
}

func createApiariesAndHives(tx *gorm.DB) error {
	return createTables(tx, &apiaryV1{}, &hiveV1{})
}

func addPhotoRefs(tx *gorm.DB) error {
	m := tx.Migrator()
	for _, model := range []any{&entities.Apiary{}, &entities.Hive{}} {
		if m.HasColumn(model, "PhotoRef") {
			continue
		}
		if err := m.AddColumn(model, "PhotoRef"); err != nil {
			return err
		}
	}
	return nil
}

func createInspectionsProductsHarvests(tx *gorm.DB) error {
	return createTables(tx, &entities.Inspection{}, &entities.Product{}, &entities.Harvest{})
}

var listingIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_hives_apiary_installation ON hives (apiary_id, installation_date)",
	"CREATE INDEX IF NOT EXISTS idx_inspections_hive_date ON inspections (hive_id, inspection_date)",
	"CREATE INDEX IF NOT EXISTS idx_harvests_hive_date ON harvests (hive_id, harvest_date)",
	"CREATE INDEX IF NOT EXISTS idx_apiaries_municipality ON apiaries (municipality)",
}

func addListingIndexes(tx *gorm.DB) error {
	for _, stmt := range listingIndexes {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsersAndAuditEvents(tx *gorm.DB) error {
	return createTables(tx, &entities.User{}, &entities.AuditEvent{})
}
