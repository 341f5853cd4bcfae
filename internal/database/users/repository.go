// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByEmail(ctx, "ana@example.com")
package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/beesmart/beesmart/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts the user. Emails are stored lower-cased.
func (r *Repository) CreateUser(ctx context.Context, user *entities.User) error {
	user.Email = normalizeEmail(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByID returns nil, nil when no user has the id.
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetUserByEmail returns nil, nil when no user has the email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.first(ctx, "email = ?", normalizeEmail(email))
}

// TouchLogin records a successful login.
func (r *Repository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
