// Package harvests provides database operations for harvests.
//
// # Usage
//
//	repo := harvests.NewRepository(db, log)
//	id, productID, err := repo.CreateWithProduct(ctx, entities.Harvest{HiveID: 3, HarvestDate: "2024-08-01", Quantity: 12}, "Miel")
//	list, err := repo.ListByParent(ctx, 3)
package harvests

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/database/products"
	"github.com/beesmart/beesmart/internal/entities"
)

const entity = entities.EntityHarvest

// ErrHiveNotFound is returned by CreateWithProduct when the harvest names a missing hive.
var ErrHiveNotFound = errors.New("hive not found")

// Repository handles all harvest database operations.
type Repository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewRepository creates a new harvests repository.
func NewRepository(db *gorm.DB, log logrus.FieldLogger) *Repository {
	return &Repository{db: db, log: log}
}

// Create inserts the harvest as given. Hive, apiary and product must exist.
func (r *Repository) Create(ctx context.Context, harvest entities.Harvest) (uint, error) {
	harvest.ID = 0
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&harvest).Error; err != nil {
		return 0, database.Fail(r.log, "create", entity, 0, err)
	}
	return harvest.ID, nil
}

// CreateWithProduct inserts the harvest, resolving productName to a catalog
// entry (created when missing) and taking the apiary from the hive when
// ApiaryID is zero. Everything commits or nothing does.
func (r *Repository) CreateWithProduct(ctx context.Context, harvest entities.Harvest, productName string) (id, productID uint, err error) {
	harvest.ID = 0
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if harvest.ApiaryID == 0 {
			var hive entities.Hive
			err := tx.Select("id", "apiary_id").First(&hive, harvest.HiveID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrHiveNotFound, harvest.HiveID)
			}
			if err != nil {
				return err
			}
			harvest.ApiaryID = hive.ApiaryID
		}

		pid, _, err := products.GetOrCreateTx(tx, productName)
		if err != nil {
			return err
		}
		harvest.ProductID = pid

		return tx.Omit(clause.Associations).Create(&harvest).Error
	})
	if err != nil {
		return 0, 0, database.Fail(r.log, "create_with_product", entity, 0, err)
	}
	return harvest.ID, harvest.ProductID, nil
}

// GetByID returns nil, nil when no harvest has the id.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Harvest, error) {
	var harvest entities.Harvest
	found, err := database.FindByID(ctx, r.db, &harvest, id)
	if err != nil {
		return nil, database.Fail(r.log, "get", entity, id, err)
	}
	if !found {
		return nil, nil
	}
	return &harvest, nil
}

// ListByParent returns the harvests of a hive, newest first.
func (r *Repository) ListByParent(ctx context.Context, hiveID uint) ([]entities.Harvest, error) {
	return r.list(ctx, "hive_id = ?", hiveID)
}

// ListByApiary returns the harvests recorded against an apiary, newest first.
func (r *Repository) ListByApiary(ctx context.Context, apiaryID uint) ([]entities.Harvest, error) {
	return r.list(ctx, "apiary_id = ?", apiaryID)
}

// ListAll returns every harvest, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Harvest, error) {
	return r.list(ctx, "")
}

func (r *Repository) list(ctx context.Context, where string, args ...any) ([]entities.Harvest, error) {
	query := r.db.WithContext(ctx)
	if where != "" {
		query = query.Where(where, args...)
	}

	var out []entities.Harvest
	err := query.Order("harvest_date DESC").Order("id DESC").Find(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list", entity, 0, err)
	}
	return out, nil
}

// Update writes only the fields set in p. An empty patch is a no-op.
func (r *Repository) Update(ctx context.Context, id uint, p entities.HarvestPatch) error {
	if err := database.ApplyPatch(ctx, r.db, &entities.Harvest{}, id, p); err != nil {
		return database.Fail(r.log, "update", entity, id, err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&entities.Harvest{}, id).Error; err != nil {
		return database.Fail(r.log, "delete", entity, id, err)
	}
	return nil
}
