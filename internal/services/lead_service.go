// Package services – LeadService
//
// This file implements LeadService, the application-level component that
// serves stored leads to operators: paginated listing, single-lead reads,
// and audited status transitions.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include site identifiers and pagination parameters where applicable.

package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lodgera/go-leads-backend/internal/domain"
	"github.com/lodgera/go-leads-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LeadService serves stored leads and owns audited status transitions.
type LeadService struct {
	DB *gorm.DB
}

// ListPage returns one page of a site's leads plus the total row count for
// pagination metadata. Status optionally narrows the listing.
func (s *LeadService) ListPage(ctx context.Context, siteID, status string, page, perPage int) ([]domain.Lead, int64, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("site.id", siteID),
			attribute.Int("page", page),
			attribute.Int("per_page", perPage),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	if status != "" && !domain.ValidStatus(status) {
		return nil, 0, ErrInvalidStatus
	}

	total, err := repo.CountLeads(ctx, s.DB, siteID, status)
	if err != nil {
		return nil, 0, err
	}
	leads, err := repo.ListLeadsPage(ctx, s.DB, siteID, status, (page-1)*perPage, perPage)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// Get returns one lead scoped to the site, or ErrLeadNotFound.
func (s *LeadService) Get(ctx context.Context, siteID, leadID string) (*domain.Lead, error) {
	lead, err := repo.GetLead(ctx, s.DB, leadID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	if lead.SiteID != siteID {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// UpdateStatus transitions a lead's status and appends an audit row in one
// transaction. The actor is the operator identity taken from the request.
// A no-op transition (same status) succeeds without an audit row.
func (s *LeadService) UpdateStatus(ctx context.Context, siteID, leadID, status string, actor *string, reason string) (*domain.Lead, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.String("site.id", siteID),
			attribute.String("lead.id", leadID),
			attribute.String("lead.status", status),
		),
	)
	defer span.End()

	if !domain.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	lead, err := s.Get(ctx, siteID, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == status {
		return lead, nil
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, uerr := repo.UpdateLeadStatus(ctx, tx, leadID, status)
		if uerr != nil {
			return uerr
		}
		_, uerr = repo.CreateStatusChange(ctx, tx, leadID, "status", old, status, actor, reason)
		return uerr
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}

	lead.Status = status
	lead.UpdatedAt = time.Now().UTC()
	return lead, nil
}

// History returns a lead's audit trail, oldest first.
func (s *LeadService) History(ctx context.Context, siteID, leadID string) ([]domain.StatusChange, error) {
	if _, err := s.Get(ctx, siteID, leadID); err != nil {
		return nil, err
	}
	return repo.ListStatusChanges(ctx, s.DB, leadID)
}
