// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the SiteConfig
// model, which anchors webhook authentication.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lodgera/go-leads-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateSite inserts a new site configuration row.
func CreateSite(ctx context.Context, db *gorm.DB, name, apiKey, webhookSecret string) (*domain.SiteConfig, error) {
	now := time.Now().UTC()
	s := &domain.SiteConfig{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		APIKey:        apiKey,
		WebhookSecret: webhookSecret,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s, nil
}

// GetSiteByAPIKey returns the site owning apiKey, or ErrNotFound.
// Inactive sites are still returned; callers decide how to treat them.
func GetSiteByAPIKey(ctx context.Context, db *gorm.DB, apiKey string) (*domain.SiteConfig, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotFound
	}
	var s domain.SiteConfig
	err := db.WithContext(ctx).Where("api_key = ?", apiKey).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSite returns a site by ID or ErrNotFound.
func GetSite(ctx context.Context, db *gorm.DB, id string) (*domain.SiteConfig, error) {
	var s domain.SiteConfig
	err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListActiveSites returns every active site ordered deterministically
// (Name ASC, ID ASC). Used by the daily report runner.
func ListActiveSites(ctx context.Context, db *gorm.DB) ([]domain.SiteConfig, error) {
	var out []domain.SiteConfig
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC, id ASC").
		Find(&out).Error
	return out, err
}
