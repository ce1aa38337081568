// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// by the spam scorer's behavioral signal, the daily exception analyzer, and
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lodgera/go-leads-backend/internal/domain"
)

// CountRecentSubmissions counts a site's leads stored since the given instant
// that share the submitter's IP address or email. Either identifier may be
// empty; an empty identifier never matches.
func CountRecentSubmissions(ctx context.Context, db *gorm.DB, siteID, ip, email string, since time.Time) (int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("site_id = ? AND created_at >= ?", siteID, since)
	switch {
	case ip != "" && email != "":
		q = q.Where("ip_address = ? OR email = ?", ip, email)
	case ip != "":
		q = q.Where("ip_address = ?", ip)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		return 0, nil
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// LeadsForDay returns every lead a site received on the given UTC calendar
// day, ordered deterministically (SubmittedAt ASC, ID ASC).
func LeadsForDay(ctx context.Context, db *gorm.DB, siteID string, day time.Time) ([]domain.Lead, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	var out []domain.Lead
	err := db.WithContext(ctx).
		Where("site_id = ? AND submitted_at >= ? AND submitted_at < ?", siteID, start, end).
		Order("submitted_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// TrailingDailyAverage returns the mean daily submission count for a site
// over the `days` UTC calendar days ending the day before `day`. Days with no
// submissions count as zero, so the divisor is always `days`.
func TrailingDailyAverage(ctx context.Context, db *gorm.DB, siteID string, day time.Time, days int) (float64, error) {
	if days <= 0 {
		return 0, nil
	}
	end := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("site_id = ? AND submitted_at >= ? AND submitted_at < ?", siteID, start, end).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return float64(total) / float64(days), nil
}

// LeadsStats returns aggregate metadata for a site's leads: the total number
// of rows and the maximum UpdatedAt timestamp among those rows.
//
// It executes two lightweight queries against the leads table scoped to the
// provided siteID. When the site has no leads, the returned count is 0 and
// maxUpdatedAt is nil.
//
// Return values:
//   - count:        total leads for siteID
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func LeadsStats(ctx context.Context, db *gorm.DB, siteID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Lead{}).Where("site_id = ?", siteID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
