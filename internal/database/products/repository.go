// Package products provides database operations for the harvest product catalog.
//
// # Usage
//
//	repo := products.NewRepository(db, log)
//	id, created, err := repo.GetOrCreate(ctx, "Miel")
//	all, err := repo.List(ctx)
package products

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/entities"
)

const entity = entities.EntityProduct

// Repository handles all product database operations.
type Repository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewRepository creates a new products repository.
func NewRepository(db *gorm.DB, log logrus.FieldLogger) *Repository {
	return &Repository{db: db, log: log}
}

func (r *Repository) Create(ctx context.Context, product entities.Product) (uint, error) {
	product.ID = 0
	if err := r.db.WithContext(ctx).Create(&product).Error; err != nil {
		return 0, database.Fail(r.log, "create", entity, 0, err)
	}
	return product.ID, nil
}

// GetByID returns nil, nil when no product has the id.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Product, error) {
	var product entities.Product
	found, err := database.FindByID(ctx, r.db, &product, id)
	if err != nil {
		return nil, database.Fail(r.log, "get", entity, id, err)
	}
	if !found {
		return nil, nil
	}
	return &product, nil
}

// List returns the catalog ordered by name.
func (r *Repository) List(ctx context.Context) ([]entities.Product, error) {
	var out []entities.Product
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list", entity, 0, err)
	}
	return out, nil
}

// FindByName matches names case-insensitively after trimming. It returns
// nil, nil when there is no match.
func (r *Repository) FindByName(ctx context.Context, name string) (*entities.Product, error) {
	product, err := findByName(r.db.WithContext(ctx), name)
	if err != nil {
		return nil, database.Fail(r.log, "find", entity, 0, err)
	}
	return product, nil
}

// GetOrCreate returns the id of the product called name, creating it when
// missing. created reports whether a row was inserted.
func (r *Repository) GetOrCreate(ctx context.Context, name string) (id uint, created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, created, err = GetOrCreateTx(tx, name)
		return err
	})
	if err != nil {
		return 0, false, database.Fail(r.log, "get_or_create", entity, 0, err)
	}
	return id, created, nil
}

// GetOrCreateTx is GetOrCreate on a caller supplied handle, usually an
// open transaction.
func GetOrCreateTx(tx *gorm.DB, name string) (uint, bool, error) {
	name = strings.TrimSpace(name)
	existing, err := findByName(tx, name)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	product := entities.Product{Name: name}
	if err := tx.Create(&product).Error; err != nil {
		return 0, false, err
	}
	return product.ID, true, nil
}

// findByName folds case in Go. SQLite's LOWER only folds ASCII, so
// "PROPÓLEO" would miss "Propóleo" in SQL.
func findByName(db *gorm.DB, name string) (*entities.Product, error) {
	name = strings.TrimSpace(name)
	var all []entities.Product
	if err := db.Order("id ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(strings.TrimSpace(all[i].Name), name) {
			return &all[i], nil
		}
	}
	return nil, nil
}

// Update writes only the fields set in p. An empty patch is a no-op.
func (r *Repository) Update(ctx context.Context, id uint, p entities.ProductPatch) error {
	if err := database.ApplyPatch(ctx, r.db, &entities.Product{}, id, p); err != nil {
		return database.Fail(r.log, "update", entity, id, err)
	}
	return nil
}

// Delete fails with a ConstraintViolation while harvests reference the product.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&entities.Product{}, id).Error; err != nil {
		return database.Fail(r.log, "delete", entity, id, err)
	}
	return nil
}

// SeedDefaults inserts the default catalog entries that are missing and
// returns how many were added.
func (r *Repository) SeedDefaults(ctx context.Context) (int, error) {
	added := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range entities.DefaultProducts {
			_, created, err := GetOrCreateTx(tx, name)
			if err != nil {
				return err
			}
			if created {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, database.Fail(r.log, "seed", entity, 0, err)
	}
	return added, nil
}
