// Report HTTP handlers.
//
// This file exposes the on-demand daily report endpoint:
//   - GET /reports/daily?date=YYYY-MM-DD
//
// The scheduled nightly run uses the same service; this endpoint lets
// operators rebuild any past day's report interactively.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lodgera/go-leads-backend/internal/services"
)

// DailyReport godoc
// @ID          dailyReport
// @Summary     Build the daily exception report
// @Description Assembles the site's daily stats and exception list for the given UTC day (defaults to yesterday).
// @Tags        Reports
// @Produce     json
//
// @Param       X-API-Key  header  string  true  "Site API key"
// @Param       date       query   string  false "UTC day (YYYY-MM-DD), defaults to yesterday"
//
// @Success     200  {object} report.DailyReport
// @Failure     400  {object} handlers.ErrorResponse "Bad date"
// @Failure     404  {object} handlers.ErrorResponse "Site not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reports/daily [get]
func (h *Handlers) DailyReport(c *gin.Context) {
	s := site(c)
	if s == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing site credentials")
		return
	}

	day := time.Now().UTC().AddDate(0, 0, -1)
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	rep, err := h.reportSvc.BuildDailyReport(c.Request.Context(), s.ID, day)
	if err != nil {
		if err == services.ErrSiteNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "site not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, rep)
}
