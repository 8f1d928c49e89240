package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Dashboard
// @Description Totals, today's count, pending and completed counts, breakdowns by type and status, ten most recent occurrences.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Dashboard
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /reports/dashboard [get]
func (h *Handler) getDashboard(c *gin.Context) {
	log := h.logger.WithField("method", "getDashboard")

	dashboard, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// @Summary Occurrences by neighborhood
// @Description Count per neighborhood, highest first, optionally within a date range.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string false "End (RFC3339 or YYYY-MM-DD)"
// @Success 200 {array} models.GroupCount
// @Failure 400 {object} ErrorResponse "Invalid date range"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /reports/by-neighborhood [get]
func (h *Handler) getByNeighborhood(c *gin.Context) {
	log := h.logger.WithField("method", "getByNeighborhood")

	from, err := parseDateParam(c.Query("startDate"), false)
	if err != nil {
		h.badRequest(c, log, err, "invalid startDate")
		return
	}
	to, err := parseDateParam(c.Query("endDate"), true)
	if err != nil {
		h.badRequest(c, log, err, "invalid endDate")
		return
	}

	counts, err := h.reportService.ByNeighborhood(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// @Summary Occurrences by period
// @Description Daily counts over the last week, month or year. Unknown periods fall back to month.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param period query string false "week, month or year" default(month)
// @Success 200 {object} models.PeriodReport
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /reports/by-period [get]
func (h *Handler) getByPeriod(c *gin.Context) {
	log := h.logger.WithField("method", "getByPeriod")

	report, err := h.reportService.ByPeriod(c.Request.Context(), c.DefaultQuery("period", "month"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary Response performance
// @Description Mean response minutes overall and per type. Occurrences never dispatched are excluded.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PerformanceReport
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /reports/performance [get]
func (h *Handler) getPerformance(c *gin.Context) {
	log := h.logger.WithField("method", "getPerformance")

	report, err := h.reportService.Performance(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
