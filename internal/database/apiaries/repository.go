// Package apiaries provides database operations for apiaries.
//
// # Usage
//
//	repo := apiaries.NewRepository(db, log)
//	id, err := repo.Create(ctx, entities.Apiary{Name: "Apiario A", CreationDate: "2024-04-01"})
//	towns, err := repo.UniqueMunicipalities(ctx)
package apiaries

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/entities"
)

const entity = entities.EntityApiary

// Repository handles all apiary database operations.
type Repository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewRepository creates a new apiaries repository.
func NewRepository(db *gorm.DB, log logrus.FieldLogger) *Repository {
	return &Repository{db: db, log: log}
}

// Create inserts the apiary and returns its id. Nil optional fields are stored as NULL.
func (r *Repository) Create(ctx context.Context, apiary entities.Apiary) (uint, error) {
	apiary.ID = 0
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&apiary).Error; err != nil {
		return 0, database.Fail(r.log, "create", entity, 0, err)
	}
	return apiary.ID, nil
}

// GetByID returns nil, nil when no apiary has the id.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Apiary, error) {
	var apiary entities.Apiary
	found, err := database.FindByID(ctx, r.db, &apiary, id)
	if err != nil {
		return nil, database.Fail(r.log, "get", entity, id, err)
	}
	if !found {
		return nil, nil
	}
	return &apiary, nil
}

// List returns every apiary, newest creation date first.
func (r *Repository) List(ctx context.Context) ([]entities.Apiary, error) {
	var out []entities.Apiary
	err := r.db.WithContext(ctx).
		Order("creation_date DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list", entity, 0, err)
	}
	return out, nil
}

// ListByParent returns the apiaries owned by a user, newest first.
func (r *Repository) ListByParent(ctx context.Context, userRef uint) ([]entities.Apiary, error) {
	var out []entities.Apiary
	err := r.db.WithContext(ctx).
		Where("user_ref = ?", userRef).
		Order("creation_date DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list", entity, 0, err)
	}
	return out, nil
}

// Update writes only the fields set in p. An empty patch is a no-op.
func (r *Repository) Update(ctx context.Context, id uint, p entities.ApiaryPatch) error {
	if err := database.ApplyPatch(ctx, r.db, &entities.Apiary{}, id, p); err != nil {
		return database.Fail(r.log, "update", entity, id, err)
	}
	return nil
}

// Delete removes the apiary. Its hives and harvests go with it.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&entities.Apiary{}, id).Error; err != nil {
		return database.Fail(r.log, "delete", entity, id, err)
	}
	return nil
}

// UniqueMunicipalities returns the distinct non-blank municipalities,
// trimmed, in ascending order.
func (r *Repository) UniqueMunicipalities(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT DISTINCT TRIM(municipality) FROM apiaries
		 WHERE municipality IS NOT NULL AND TRIM(municipality) <> ''
		 ORDER BY 1 ASC`,
	).Scan(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list_municipalities", entity, 0, err)
	}
	return out, nil
}

// SetPhotoRef stores or clears the photo key.
func (r *Repository) SetPhotoRef(ctx context.Context, id uint, ref *string) error {
	err := r.db.WithContext(ctx).
		Model(&entities.Apiary{}).
		Where("id = ?", id).
		Update("photo_ref", ref).Error
	if err != nil {
		return database.Fail(r.log, "set_photo", entity, id, err)
	}
	return nil
}

// PhotoRefs returns every stored apiary photo key.
func (r *Repository) PhotoRefs(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&entities.Apiary{}).
		Where("photo_ref IS NOT NULL").
		Pluck("photo_ref", &out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list_photos", entity, 0, err)
	}
	return out, nil
}
