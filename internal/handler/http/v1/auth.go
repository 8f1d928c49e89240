package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shenikar/occurrence_tracking_system/internal/config"
	"github.com/shenikar/occurrence_tracking_system/internal/models"
	"github.com/sirupsen/logrus"
)

const actorIDKey = "actor_id"

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

// JWTAuthMiddleware - middleware для аутентификации по Bearer-токену (HS256).
// Claim sub должен содержать UUID пользователя.
func JWTAuthMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Warn("Bearer token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "bearer token required", Code: codeUnauthorized})
			return
		}
		raw := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errUnexpectedSigningMethod
			}
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			log.WithError(err).Warn("Invalid bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token", Code: codeUnauthorized})
			return
		}

		actorID, err := uuid.Parse(claims.Subject)
		if err != nil {
			log.WithField("sub", claims.Subject).Warn("Token subject is not a user id")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token subject", Code: codeUnauthorized})
			return
		}

		c.Set(actorIDKey, actorID)
		c.Next()
	}
}

// actorID возвращает пользователя, установленного JWTAuthMiddleware
func actorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(actorIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// requirePermission пропускает запрос, только если у пользователя есть право
func (h *Handler) requirePermission(permission models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := h.logger.WithField("method", "requirePermission").WithField("permission", permission)

		actor, ok := actorID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Code: codeUnauthorized})
			return
		}

		allowed, err := h.permissions.HasPermission(c.Request.Context(), actor, permission)
		if err != nil {
			h.respondError(c, log, err)
			c.Abort()
			return
		}
		if !allowed {
			log.WithField("actor", actor).Warn("Permission denied")
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Code: codeForbidden})
			return
		}
		c.Next()
	}
}
