package v1

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
)

// @Summary Create a new occurrence
// @Description Register a new occurrence. It always starts in status NEW.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param occurrence body CreateOccurrenceRequest true "Occurrence creation request"
// @Success 201 {object} OccurrenceResponse
// @Failure 400 {object} ErrorResponse "Invalid request body or validation error"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /occurrences [post]
func (h *Handler) createOccurrence(c *gin.Context) {
	var input CreateOccurrenceRequest
	log := h.logger.WithField("method", "createOccurrence")

	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, log, err, "invalid request body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		h.badRequest(c, log, err, err.Error())
		return
	}

	actor, _ := actorID(c)
	model := CreateDTOToOccurrenceModel(input)
	if err := h.occurrenceService.CreateOccurrence(c.Request.Context(), model, actor); err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToOccurrenceResponse(model))
}

// @Summary Get a list of occurrences
// @Description Get a filtered, paginated list of occurrences ordered by occurred_at descending.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param priority query string false "Priority filter"
// @Param neighborhood query string false "Neighborhood filter"
// @Param startDate query string false "Occurred at or after (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string false "Occurred at or before (RFC3339 or YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page"
// @Success 200 {object} OccurrenceListResponse
// @Failure 400 {object} ErrorResponse "Invalid filter"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /occurrences [get]
func (h *Handler) listOccurrences(c *gin.Context) {
	log := h.logger.WithField("method", "listOccurrences")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		h.badRequest(c, log, err, "invalid page")
		return
	}
	// Границы страницы нормализует сервис
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "0"))
	if err != nil {
		h.badRequest(c, log, err, "invalid pageSize")
		return
	}

	filter := models.OccurrenceFilter{
		Neighborhood: c.Query("neighborhood"),
		Page:         page,
		PageSize:     pageSize,
	}
	if v := c.Query("status"); v != "" {
		s := models.Status(v)
		filter.Status = &s
	}
	if v := c.Query("type"); v != "" {
		t := models.OccurrenceType(v)
		filter.Type = &t
	}
	if v := c.Query("priority"); v != "" {
		p := models.Priority(v)
		filter.Priority = &p
	}
	if filter.From, err = parseDateParam(c.Query("startDate"), false); err != nil {
		h.badRequest(c, log, err, "invalid startDate")
		return
	}
	if filter.To, err = parseDateParam(c.Query("endDate"), true); err != nil {
		h.badRequest(c, log, err, "invalid endDate")
		return
	}

	result, err := h.occurrenceService.ListOccurrences(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, OccurrenceListResponse{
		Items:    ModelsToOccurrenceResponses(result.Items),
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// @Summary Get occurrence by ID
// @Description Get a single occurrence by its ID.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Success 200 {object} OccurrenceResponse
// @Failure 400 {object} ErrorResponse "Invalid occurrence ID"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Occurrence not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /occurrences/{id} [get]
func (h *Handler) getOccurrence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, h.logger.WithField("method", "getOccurrence"), err, "invalid occurrence ID")
		return
	}
	log := h.logger.WithField("method", "getOccurrence").WithField("id", id)

	occurrence, err := h.occurrenceService.GetOccurrence(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToOccurrenceResponse(occurrence))
}

// @Summary Update an existing occurrence
// @Description Partially update non-lifecycle fields. Status changes go through the transitions endpoint.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Param occurrence body UpdateOccurrenceRequest true "Occurrence update request"
// @Success 200 {object} OccurrenceResponse
// @Failure 400 {object} ErrorResponse "Invalid occurrence ID or request body"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Occurrence not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /occurrences/{id} [put]
func (h *Handler) updateOccurrence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, h.logger.WithField("method", "updateOccurrence"), err, "invalid occurrence ID")
		return
	}
	log := h.logger.WithField("method", "updateOccurrence").WithField("id", id)

	var input UpdateOccurrenceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, log, err, "invalid request body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		h.badRequest(c, log, err, err.Error())
		return
	}

	actor, _ := actorID(c)
	updated, err := h.occurrenceService.UpdateOccurrence(c.Request.Context(), id, UpdateDTOToOccurrenceUpdate(input), actor)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToOccurrenceResponse(updated))
}

// @Summary Delete an occurrence
// @Description Permanently delete an occurrence and its history.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse "Invalid occurrence ID"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Occurrence not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /occurrences/{id} [delete]
func (h *Handler) deleteOccurrence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, h.logger.WithField("method", "deleteOccurrence"), err, "invalid occurrence ID")
		return
	}
	log := h.logger.WithField("method", "deleteOccurrence").WithField("id", id)

	actor, _ := actorID(c)
	if err := h.occurrenceService.DeleteOccurrence(c.Request.Context(), id, actor); err != nil {
		h.respondError(c, log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Transition occurrence status
// @Description Move the occurrence to the next status: NEW -> UNDER_REVIEW -> IN_PROGRESS -> COMPLETED.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Param transition body TransitionRequest true "Target status"
// @Success 200 {object} TransitionResponse
// @Failure 400 {object} ErrorResponse "Invalid request or unknown status"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Occurrence not found"
// @Failure 409 {object} ErrorResponse "Concurrent modification"
// @Failure 422 {object} ErrorResponse "Transition not allowed"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /occurrences/{id}/transitions [post]
func (h *Handler) transitionOccurrence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, h.logger.WithField("method", "transitionOccurrence"), err, "invalid occurrence ID")
		return
	}
	log := h.logger.WithField("method", "transitionOccurrence").WithField("id", id)

	var input TransitionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, log, err, "invalid request body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		h.badRequest(c, log, err, err.Error())
		return
	}

	actor, _ := actorID(c)
	occurrence, entry, err := h.occurrenceService.TransitionOccurrence(c.Request.Context(), id, models.Status(input.Status), actor, input.Note)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, TransitionResponse{
		Occurrence: ModelToOccurrenceResponse(occurrence),
		Entry:      ModelToHistoryEntryResponse(entry),
	})
}

// @Summary Get occurrence history
// @Description Status transitions of an occurrence, oldest first.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Success 200 {array} HistoryEntryResponse
// @Failure 400 {object} ErrorResponse "Invalid occurrence ID"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Occurrence not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /occurrences/{id}/history [get]
func (h *Handler) getOccurrenceHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, h.logger.WithField("method", "getOccurrenceHistory"), err, "invalid occurrence ID")
		return
	}
	log := h.logger.WithField("method", "getOccurrenceHistory").WithField("id", id)

	entries, err := h.occurrenceService.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToHistoryEntryResponses(entries))
}

// parseDateParam принимает RFC3339 или YYYY-MM-DD. Для конца диапазона
// дата без времени означает конец этого дня.
func parseDateParam(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a date", models.ErrValidation, value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
