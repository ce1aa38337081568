// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// StatusChange audit model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lodgera/go-leads-backend/internal/domain"
)

// CreateStatusChange appends one audit row for a lead field transition.
// Actor may be nil for system-initiated transitions.
func CreateStatusChange(ctx context.Context, db *gorm.DB, leadID, field, oldValue, newValue string, actor *string, reason string) (*domain.StatusChange, error) {
	sc := &domain.StatusChange{
		ID:        uuid.NewString(),
		LeadID:    leadID,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Actor:     actor,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	return sc, db.WithContext(ctx).Create(sc).Error
}

// ListStatusChanges returns a lead's audit trail ordered (CreatedAt ASC, ID ASC).
func ListStatusChanges(ctx context.Context, db *gorm.DB, leadID string) ([]domain.StatusChange, error) {
	var out []domain.StatusChange
	err := db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
