// Package inspections provides database operations for hive inspections.
//
// Recording or revising an inspection with a state label also sets that
// label on the inspected hive, in the same transaction.
//
// # Usage
//
//	repo := inspections.NewRepository(db, log)
//	id, err := repo.Record(ctx, entities.Inspection{HiveID: 3, InspectionDate: "2024-05-01", StateLabel: &state})
//	last, err := repo.LastForHive(ctx, 3)
package inspections

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/entities"
)

const entity = entities.EntityInspection

// Repository handles all inspection database operations.
type Repository struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewRepository creates a new inspections repository.
func NewRepository(db *gorm.DB, log logrus.FieldLogger) *Repository {
	return &Repository{db: db, log: log}
}

// Create inserts the inspection only. Use Record to also update the hive.
func (r *Repository) Create(ctx context.Context, inspection entities.Inspection) (uint, error) {
	inspection.ID = 0
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&inspection).Error; err != nil {
		return 0, database.Fail(r.log, "create", entity, 0, err)
	}
	return inspection.ID, nil
}

// Record inserts the inspection and, when it carries a state label, copies
// the label to the hive. Both writes commit or neither does.
func (r *Repository) Record(ctx context.Context, inspection entities.Inspection) (uint, error) {
	inspection.ID = 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&inspection).Error; err != nil {
			return err
		}
		return copyStateToHive(tx, inspection.HiveID, inspection.StateLabel)
	})
	if err != nil {
		return 0, database.Fail(r.log, "record", entity, 0, err)
	}
	return inspection.ID, nil
}

// Revise applies p and, when p sets a state label, copies it to the
// inspection's hive (after any hive change in p). Both writes commit or
// neither does. An empty patch is a no-op.
func (r *Repository) Revise(ctx context.Context, id uint, p entities.InspectionPatch) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ApplyPatch(ctx, tx, &entities.Inspection{}, id, p); err != nil {
			return err
		}
		state := p.StateLabel.Ptr()
		if state == nil {
			return nil
		}
		var hiveID uint
		if err := tx.Model(&entities.Inspection{}).Where("id = ?", id).Pluck("hive_id", &hiveID).Error; err != nil {
			return err
		}
		if hiveID == 0 {
			return nil
		}
		return copyStateToHive(tx, hiveID, state)
	})
	if err != nil {
		return database.Fail(r.log, "revise", entity, id, err)
	}
	return nil
}

func copyStateToHive(tx *gorm.DB, hiveID uint, state *string) error {
	if state == nil || *state == "" {
		return nil
	}
	return tx.Model(&entities.Hive{}).
		Where("id = ?", hiveID).
		Update("state_label", *state).Error
}

// GetByID returns nil, nil when no inspection has the id.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Inspection, error) {
	var inspection entities.Inspection
	found, err := database.FindByID(ctx, r.db, &inspection, id)
	if err != nil {
		return nil, database.Fail(r.log, "get", entity, id, err)
	}
	if !found {
		return nil, nil
	}
	return &inspection, nil
}

// ListByParent returns the inspections of a hive, newest first.
func (r *Repository) ListByParent(ctx context.Context, hiveID uint) ([]entities.Inspection, error) {
	var out []entities.Inspection
	err := r.db.WithContext(ctx).
		Where("hive_id = ?", hiveID).
		Order("inspection_date DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list", entity, 0, err)
	}
	return out, nil
}

// ListAll returns every inspection, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Inspection, error) {
	var out []entities.Inspection
	err := r.db.WithContext(ctx).
		Order("inspection_date DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "list", entity, 0, err)
	}
	return out, nil
}

// LastForHive returns the inspection with the latest date, nil when the
// hive has none. Same-day inspections resolve to the newest id.
func (r *Repository) LastForHive(ctx context.Context, hiveID uint) (*entities.Inspection, error) {
	var out []entities.Inspection
	err := r.db.WithContext(ctx).
		Where("hive_id = ?", hiveID).
		Order("inspection_date DESC").
		Order("id DESC").
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, database.Fail(r.log, "last", entity, hiveID, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// LastByHive returns the latest inspection of every inspected hive.
func (r *Repository) LastByHive(ctx context.Context) (map[uint]entities.Inspection, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]entities.Inspection)
	for _, in := range all {
		// ListAll is newest first, so the first seen per hive wins.
		if _, ok := out[in.HiveID]; !ok {
			out[in.HiveID] = in
		}
	}
	return out, nil
}

// Update writes only the fields set in p without touching the hive.
func (r *Repository) Update(ctx context.Context, id uint, p entities.InspectionPatch) error {
	if err := database.ApplyPatch(ctx, r.db, &entities.Inspection{}, id, p); err != nil {
		return database.Fail(r.log, "update", entity, id, err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&entities.Inspection{}, id).Error; err != nil {
		return database.Fail(r.log, "delete", entity, id, err)
	}
	return nil
}
