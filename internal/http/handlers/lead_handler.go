// Lead HTTP handlers.
//
// This file exposes REST endpoints for lead resources:
//   - GET    /leads                (list, paginated, ETag support)
//   - GET    /leads/{id}           (read one)
//   - PATCH  /leads/{id}/status    (audited status transition)
//   - GET    /leads/{id}/history   (audit trail)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lodgera/go-leads-backend/internal/domain"
	"github.com/lodgera/go-leads-backend/internal/repo"
	"github.com/lodgera/go-leads-backend/internal/services"
	"github.com/lodgera/go-leads-backend/internal/utils"
)

//
// DTOs
//

// UpdateLeadStatusRequest is the JSON payload for a status transition.
type UpdateLeadStatusRequest struct {
	// Status is the new lifecycle status.
	Status string `json:"status" binding:"required" example:"contacted"`
	// Reason optionally explains the transition for the audit trail.
	Reason string `json:"reason" example:"called back, interested in July"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListLeadsResponse wraps a page of leads and pagination information.
type ListLeadsResponse struct {
	Leads      []domain.Lead `json:"leads"`
	Pagination Pagination    `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// ListLeads godoc
// @ID          listLeads
// @Summary     List leads (paginated)
// @Description Returns a page of the site's leads, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Leads
// @Produce     json
//
// @Param       X-API-Key      header  string  true  "Site API key"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       status         query   string  false "Filter by lifecycle status"  Enums(new,contacted,qualified,spam,rejected,converted)
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListLeadsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads [get]
func (h *Handlers) ListLeads(c *gin.Context) {
	s := site(c)
	if s == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing site credentials")
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)
	status := strings.TrimSpace(c.Query("status"))

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okCast := h.leadSvc.(*services.LeadService); okCast {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.LeadsStats(ctx, db, s.ID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"leads:%s:%d:%d"`, s.ID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.leadSvc.ListPage(ctx, s.ID, status, page, pageSize)
	if err != nil {
		if err == services.ErrInvalidStatus {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status filter")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListLeadsResponse{
		Leads: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// GetLead godoc
// @ID          getLead
// @Summary     Get one lead
// @Tags        Leads
// @Produce     json
//
// @Param       X-API-Key  header  string  true "Site API key"
// @Param       id         path    string  true "Lead ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.Lead
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id} [get]
func (h *Handlers) GetLead(c *gin.Context) {
	s := site(c)
	if s == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing site credentials")
		return
	}
	leadID := c.Param("id")
	if _, err := uuid.Parse(leadID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lead id must be a UUID")
		return
	}

	lead, err := h.leadSvc.Get(c.Request.Context(), s.ID, leadID)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "lead not found")
		return
	}
	ok(c, http.StatusOK, lead)
}

// UpdateLeadStatus godoc
// @ID          updateLeadStatus
// @Summary     Transition a lead's status
// @Description Sets a lead's lifecycle status and records an audit row. A no-op transition succeeds silently.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       X-API-Key  header  string  true "Site API key"
// @Param       id         path    string  true "Lead ID (UUID)" format(uuid)
// @Param       body       body    handlers.UpdateLeadStatusRequest true "New status"
//
// @Success     200  {object} domain.Lead
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id}/status [patch]
func (h *Handlers) UpdateLeadStatus(c *gin.Context) {
	s := site(c)
	if s == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing site credentials")
		return
	}
	leadID := c.Param("id")
	if _, err := uuid.Parse(leadID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lead id must be a UUID")
		return
	}

	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	var actor *string
	if op := strings.TrimSpace(c.GetHeader("X-Operator")); op != "" {
		actor = &op
	}

	lead, err := h.leadSvc.UpdateStatus(c.Request.Context(), s.ID, leadID, strings.TrimSpace(req.Status), actor, strings.TrimSpace(req.Reason))
	switch err {
	case nil:
	case services.ErrInvalidStatus:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status value")
		return
	case services.ErrLeadNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "lead not found")
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, lead)
}

// LeadHistory godoc
// @ID          leadHistory
// @Summary     Get a lead's audit trail
// @Tags        Leads
// @Produce     json
//
// @Param       X-API-Key  header  string  true "Site API key"
// @Param       id         path    string  true "Lead ID (UUID)" format(uuid)
//
// @Success     200  {array}  domain.StatusChange
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id}/history [get]
func (h *Handlers) LeadHistory(c *gin.Context) {
	s := site(c)
	if s == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing site credentials")
		return
	}
	leadID := c.Param("id")
	if _, err := uuid.Parse(leadID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lead id must be a UUID")
		return
	}

	history, err := h.leadSvc.History(c.Request.Context(), s.ID, leadID)
	if err != nil {
		if err == services.ErrLeadNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "lead not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, history)
}
