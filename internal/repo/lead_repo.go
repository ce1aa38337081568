// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lead model.
// The unique index on the composite key is the single authority on duplicate
// suppression: CreateLead maps a unique-constraint violation to ErrDuplicate
// so callers can collapse concurrent redeliveries onto the stored row.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/lodgera/go-leads-backend/internal/domain"
)

// ErrDuplicate indicates that a lead already exists for the given composite
// key (site_id, form_id, entry_id).
var ErrDuplicate = errors.New("duplicate")

// CreateLead inserts a fully scored lead row and returns ErrDuplicate on a
// composite-key unique violation. The caller owns ID assignment and scoring;
// this function only persists.
func CreateLead(ctx context.Context, db *gorm.DB, lead *domain.Lead) error {
	if err := db.WithContext(ctx).Create(lead).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetLead returns a lead by ID or ErrNotFound.
func GetLead(ctx context.Context, db *gorm.DB, id string) (*domain.Lead, error) {
	var l domain.Lead
	err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLeadByCompositeKey returns the lead owning the composite key, or
// ErrNotFound. Used both for the pre-insert duplicate check and for resolving
// the winning row after a lost insert race.
func GetLeadByCompositeKey(ctx context.Context, db *gorm.DB, key string) (*domain.Lead, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var l domain.Lead
	err := db.WithContext(ctx).Where("composite_key = ?", key).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLeadsPage returns a paginated slice of a site's leads ordered
// deterministically (SubmittedAt DESC, ID ASC). An optional status narrows
// the result.
func ListLeadsPage(ctx context.Context, db *gorm.DB, siteID, status string, offset, limit int) ([]domain.Lead, error) {
	var out []domain.Lead
	q := db.WithContext(ctx).Where("site_id = ?", siteID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.
		Order("submitted_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountLeads uses a raw COUNT so a missing table surfaces as an error.
func CountLeads(ctx context.Context, db *gorm.DB, siteID, status string) (int64, error) {
	var total int64
	var err error
	if status != "" {
		err = db.WithContext(ctx).
			Raw("SELECT COUNT(*) FROM leads WHERE site_id = ? AND status = ? AND deleted_at IS NULL", siteID, status).
			Scan(&total).Error
	} else {
		err = db.WithContext(ctx).
			Raw("SELECT COUNT(*) FROM leads WHERE site_id = ? AND deleted_at IS NULL", siteID).
			Scan(&total).Error
	}
	return total, err
}

// UpdateLeadStatus sets a lead's status and reports the previous value.
// Returns ErrNotFound when the lead does not exist.
func UpdateLeadStatus(ctx context.Context, db *gorm.DB, id, status string) (old string, err error) {
	var l domain.Lead
	err = db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	old = l.Status
	err = db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Update("status", status).Error
	return old, err
}
