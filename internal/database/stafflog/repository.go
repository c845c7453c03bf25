// Package stafflog records immutable audit rows for staff and admin actions.
// Rows are append-only; the only deletion path is the retention sweep.
package stafflog

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// Repository handles staff log database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new staff log repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record appends an audit row. Old and new values are stored as JSON
// snapshots; nil snapshots are stored as empty strings.
func (r *Repository) Record(actorID uint, action entities.StaffAction, entityType string, entityID *uint, description string, oldValue, newValue any, ipAddress string) error {
	entry := entities.StaffLog{
		ActorID:     actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		IPAddress:   ipAddress,
		CreatedAt:   time.Now(),
	}

	if oldValue != nil {
		data, err := json.Marshal(oldValue)
		if err != nil {
			return fmt.Errorf("marshal old value: %w", err)
		}
		entry.OldValue = string(data)
	}
	if newValue != nil {
		data, err := json.Marshal(newValue)
		if err != nil {
			return fmt.Errorf("marshal new value: %w", err)
		}
		entry.NewValue = string(data)
	}

	return r.db.Create(&entry).Error
}

// List returns audit rows newest first, optionally filtered by action.
func (r *Repository) List(action entities.StaffAction, limit, offset int) ([]entities.StaffLog, int64, error) {
	var logs []entities.StaffLog
	var total int64

	countQuery := r.db.Model(&entities.StaffLog{})
	if action != "" {
		countQuery = countQuery.Where("action = ?", action)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Order("created_at DESC")
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&logs).Error
	return logs, total, err
}

// DeleteOldEntries removes rows older than the retention period and returns
// the number deleted. Called by the retention sweep task.
func (r *Repository) DeleteOldEntries(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.StaffLog{})
	return result.RowsAffected, result.Error
}
