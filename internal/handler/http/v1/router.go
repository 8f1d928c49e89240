package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Health-check доступен без токена
	api.GET("/system/health", h.healthCheck)

	protected := api.Group("")
	protected.Use(JWTAuthMiddleware(h.cfg, h.logger))

	view := h.requirePermission(models.PermissionView)

	// Права на запись проверяет сервис, на чтение - middleware
	occurrences := protected.Group("/occurrences")
	{
		occurrences.POST("", h.createOccurrence)
		occurrences.GET("", view, h.listOccurrences)
		occurrences.GET("/:id", view, h.getOccurrence)
		occurrences.PUT("/:id", h.updateOccurrence)
		occurrences.DELETE("/:id", h.deleteOccurrence)
		occurrences.POST("/:id/transitions", h.transitionOccurrence)
		occurrences.GET("/:id/history", view, h.getOccurrenceHistory)
	}

	reports := protected.Group("/reports", view)
	{
		reports.GET("/dashboard", h.getDashboard)
		reports.GET("/by-neighborhood", h.getByNeighborhood)
		reports.GET("/by-period", h.getByPeriod)
		reports.GET("/performance", h.getPerformance)
	}
}
