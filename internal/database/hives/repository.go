// Package hives provides database operations for hives.
//
// # Usage
//
//	repo := hives.NewRepository(db, log)
//	list, err := repo.ListByParent(ctx, apiaryID)
//	counts, err := repo.CountForApiary(ctx, apiaryID)
package hives

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/entities"
)

const entity = entities.EntityHive

// Repository handles all hive database operations.
type Repository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewRepository creates a new hives repository.
func NewRepository(db *gorm.DB, log logrus.FieldLogger) *Repository {
	return &Repository{db: db, log: log}
}

// Create inserts the hive and returns its id. The apiary must exist.
func (r *Repository) Create(ctx context.Context, hive entities.Hive) (uint, error) {
	hive.ID = 0
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&hive).Error; err != nil {
		return 0, database.Fail(r.log, "create", entity, 0, err)
	}
	return hive.ID, nil
}

// GetByID returns nil, nil when no hive has the id.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Hive, error) {
	var hive entities.Hive
	found, err := database.FindByID(ctx, r.db, &hive, id)
	if err != nil {
		return nil, database.Fail(r.log, "get", entity, id, err)
	}
	if !found {
		return nil, nil
	}
	return &hive, nil
}

// ListByParent returns the hives of an apiary, most recently installed first.
func (r *Repository) ListByParent(ctx context.Context, apiaryID uint) ([]entities.Hive, error) {
	var out []entities.Hive
	err := r.db.WithContext(ctx).
		Where("apiary_id = ?", apiaryID).
		Order("installation_date DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list", entity, 0, err)
	}
	return out, nil
}

// List returns every hive, most recently installed first.
func (r *Repository) List(ctx context.Context) ([]entities.Hive, error) {
	var out []entities.Hive
	err := r.db.WithContext(ctx).
		Order("installation_date DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list", entity, 0, err)
	}
	return out, nil
}

// Update writes only the fields set in p. An empty patch is a no-op.
func (r *Repository) Update(ctx context.Context, id uint, p entities.HivePatch) error {
	if err := database.ApplyPatch(ctx, r.db, &entities.Hive{}, id, p); err != nil {
		return database.Fail(r.log, "update", entity, id, err)
	}
	return nil
}

// Delete removes the hive together with its inspections and harvests.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&entities.Hive{}, id).Error; err != nil {
		return database.Fail(r.log, "delete", entity, id, err)
	}
	return nil
}

// CountForApiary returns how many hives the apiary has and how many of
// them are in an active state.
func (r *Repository) CountForApiary(ctx context.Context, apiaryID uint) (entities.HiveCounts, error) {
	var counts entities.HiveCounts
	err := r.db.WithContext(ctx).
		Model(&entities.Hive{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN state_label IN ? THEN 1 ELSE 0 END), 0) AS active", entities.ActiveHiveStates).
		Where("apiary_id = ?", apiaryID).
		Scan(&counts).Error
	if err != nil {
		return entities.HiveCounts{}, database.Fail(r.log, "count", entity, 0, err)
	}
	return counts, nil
}

type apiaryCounts struct {
	ApiaryID uint
	Total    int64
	Active   int64
}

// CountsByApiary is CountForApiary for every apiary in one query.
// Apiaries without hives are absent from the map.
func (r *Repository) CountsByApiary(ctx context.Context) (map[uint]entities.HiveCounts, error) {
	var rows []apiaryCounts
	err := r.db.WithContext(ctx).
		Model(&entities.Hive{}).
		Select("apiary_id, COUNT(*) AS total, COALESCE(SUM(CASE WHEN state_label IN ? THEN 1 ELSE 0 END), 0) AS active", entities.ActiveHiveStates).
		Group("apiary_id").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Fail(r.log, "count", entity, 0, err)
	}

	out := make(map[uint]entities.HiveCounts, len(rows))
	for _, row := range rows {
		out[row.ApiaryID] = entities.HiveCounts{Total: row.Total, Active: row.Active}
	}
	return out, nil
}

// SetPhotoRef stores or clears the photo key.
func (r *Repository) SetPhotoRef(ctx context.Context, id uint, ref *string) error {
	err := r.db.WithContext(ctx).
		Model(&entities.Hive{}).
		Where("id = ?", id).
		Update("photo_ref", ref).Error
	if err != nil {
		return database.Fail(r.log, "set_photo", entity, id, err)
	}
	return nil
}

// PhotoRefs returns every stored hive photo key.
func (r *Repository) PhotoRefs(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&entities.Hive{}).
		Where("photo_ref IS NOT NULL").
		Pluck("photo_ref", &out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list_photos", entity, 0, err)
	}
	return out, nil
}
