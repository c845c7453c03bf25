// Package users provides user listing and role management for the admin API.
// Credential handling lives in internal/auth; this repository only covers the
// administrative read/update paths.
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
)

// Repository handles administrative user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new user repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns users with pagination, newest first.
func (r *Repository) List(limit, offset int) ([]entities.User, int64, error) {
	var users []entities.User
	var total int64

	if err := r.db.Model(&entities.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&users).Error
	return users, total, err
}

// GetByID returns a single user.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRole changes a user's role. Returns the previous and updated state
// for audit snapshots.
func (r *Repository) UpdateRole(id uint, role entities.UserRole) (old, updated *entities.User, err error) {
	switch role {
	case entities.UserRoleReader, entities.UserRoleStaff, entities.UserRoleAdmin:
	default:
		return nil, nil, ErrInvalidRole
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		var user entities.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		prev := user
		old = &prev

		if err := tx.Model(&user).Update("role", role).Error; err != nil {
			return err
		}
		user.Role = role
		updated = &user
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return old, updated, nil
}
