package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/beesmart/beesmart/internal/patch"
)

// FindByID loads the row with the given primary key into dest. It reports
// false, without error, when no row matches.
func FindByID(ctx context.Context, db *gorm.DB, dest any, id uint) (bool, error) {
	err := db.WithContext(ctx).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ApplyPatch writes the set fields of p to the row id of model's table.
// An empty patch issues no statement.
func ApplyPatch(ctx context.Context, db *gorm.DB, model any, id uint, p any) error {
	assignments := patch.Assignments(p)
	if len(assignments) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		Updates(patch.Columns(assignments)).Error
}
