// Webhook HTTP handlers.
//
// This file exposes the ingestion endpoint for form-builder webhooks:
//   - POST /webhooks/forms   (ingest a submission)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. The authenticated site is placed
// in the Gin context by the API-key middleware upstream.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lodgera/go-leads-backend/internal/domain"
	"github.com/lodgera/go-leads-backend/internal/http/middleware"
	"github.com/lodgera/go-leads-backend/internal/report"
	"github.com/lodgera/go-leads-backend/internal/services"
	"github.com/lodgera/go-leads-backend/internal/webhook"
)

//
// Service contracts (context-aware)
//

// IngestService runs the webhook ingestion pipeline for a resolved site.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type IngestService interface {
	// Ingest verifies, parses, scores, and persists one webhook delivery.
	Ingest(ctx context.Context, site *domain.SiteConfig, body []byte, signature, remoteIP string) (*services.IngestResult, error)
}

// LeadService defines lead read and status-transition operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type LeadService interface {
	// ListPage returns a page of a site's leads and the total count.
	ListPage(ctx context.Context, siteID, status string, page, perPage int) ([]domain.Lead, int64, error)
	// Get returns one lead scoped to the site.
	Get(ctx context.Context, siteID, leadID string) (*domain.Lead, error)
	// UpdateStatus transitions a lead's status with an audit row.
	UpdateStatus(ctx context.Context, siteID, leadID, status string, actor *string, reason string) (*domain.Lead, error)
	// History returns a lead's audit trail, oldest first.
	History(ctx context.Context, siteID, leadID string) ([]domain.StatusChange, error)
}

// ReportService builds per-site daily exception reports on demand.
type ReportService interface {
	// BuildDailyReport assembles the report for one site and UTC day.
	BuildDailyReport(ctx context.Context, siteID string, day time.Time) (*report.DailyReport, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for webhooks, leads, and reports.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	ingestSvc IngestService
	leadSvc   LeadService
	reportSvc ReportService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(ingestSvc IngestService, leadSvc LeadService, reportSvc ReportService) *Handlers {
	return &Handlers{ingestSvc: ingestSvc, leadSvc: leadSvc, reportSvc: reportSvc}
}

// site extracts the authenticated site from Gin context (set by the API-key
// middleware). A nil return means the middleware did not run; handlers treat
// that as unauthorized rather than panicking.
func site(c *gin.Context) *domain.SiteConfig {
	return middleware.SiteFrom(c)
}

//
// DTOs
//

// IngestResponse is the JSON payload returned for an accepted or duplicate
// webhook delivery. Duplicate deliveries carry the originally stored lead's ID.
type IngestResponse struct {
	LeadID    string `json:"lead_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Duplicate bool   `json:"duplicate"`
}

//
// Handlers
//

// IngestWebhook godoc
// @ID          ingestWebhook
// @Summary     Ingest a form submission webhook
// @Description Verifies, classifies, scores, and stores one form submission. Redeliveries of the same submission return 200 with the originally stored lead.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       X-API-Key            header  string  true   "Site API key"
// @Param       X-Webhook-Signature  header  string  false  "hex HMAC-SHA256 of the raw body"
// @Param       body                 body    object  true   "Form-builder webhook payload"
//
// @Success     201  {object}  handlers.IngestResponse
// @Success     200  {object}  handlers.IngestResponse "Duplicate delivery"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed payload"
// @Failure     401  {object}  handlers.ErrorResponse  "Bad signature or API key"
// @Failure     409  {object}  handlers.ErrorResponse  "Conflicting submission in flight"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /webhooks/forms [post]
func (h *Handlers) IngestWebhook(c *gin.Context) {
	s := site(c)
	if s == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing site credentials")
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
		return
	}

	res, err := h.ingestSvc.Ingest(
		c.Request.Context(),
		s,
		body,
		c.GetHeader(webhook.HeaderSignature),
		c.ClientIP(),
	)
	switch {
	case errors.Is(err, services.ErrBadSignature):
		fail(c, http.StatusUnauthorized, ErrCodeBadSignature, "invalid webhook signature")
		return
	case errors.Is(err, services.ErrInvalidPayload):
		fail(c, http.StatusBadRequest, ErrCodeInvalidPayload, err.Error())
		return
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, "conflicting submission in flight, retry")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeIngestFailed, err.Error())
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	ok(c, status, IngestResponse{LeadID: res.LeadID, Duplicate: res.Duplicate})
}
