package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/occurrence_tracking_system/internal/config"
	"github.com/shenikar/occurrence_tracking_system/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	occurrenceService service.OccurrenceService
	reportService     service.ReportService
	permissions       service.PermissionChecker
	logger            *logrus.Logger
	validate          *validator.Validate
	cfg               *config.Config
}

func NewHandler(
	occurrenceService service.OccurrenceService,
	reportService service.ReportService,
	permissions service.PermissionChecker,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		occurrenceService: occurrenceService,
		reportService:     reportService,
		permissions:       permissions,
		logger:            logger,
		validate:          validator.New(),
		cfg:               cfg,
	}
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
