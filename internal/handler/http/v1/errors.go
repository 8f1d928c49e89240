package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/sirupsen/logrus"
)

// Стабильные коды ошибок в теле ответа
const (
	codeValidation        = "VALIDATION_FAILED"
	codeNotFound          = "NOT_FOUND"
	codeForbidden         = "FORBIDDEN"
	codeInvalidTransition = "INVALID_TRANSITION"
	codeConflict          = "CONFLICT"
	codeUnauthorized      = "UNAUTHORIZED"
	codeInternal          = "INTERNAL"
)

const internalErrorMessage = "internal server error"

// ErrorResponse DTO для ответа с ошибкой
// @Description DTO для ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, codeInvalidTransition
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, codeConflict
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// respondError пишет ответ с ошибкой. Текст внутренних ошибок наружу не отдается.
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		msg = internalErrorMessage
	} else {
		log.WithError(err).Warn("Request rejected")
	}
	c.JSON(status, ErrorResponse{Error: msg, Code: code})
}

// badRequest - ошибка разбора входных данных до вызова сервиса
func (h *Handler) badRequest(c *gin.Context, log *logrus.Entry, err error, msg string) {
	log.WithError(err).Warn(msg)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: codeValidation})
}
