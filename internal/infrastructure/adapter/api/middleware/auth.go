package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainerr "github.com/vendtrack/vending-core/internal/domain/error"
	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/dto"
)

// actorKey is the gin context key the authenticated actor id is stored under
const actorKey = "actor_id"

// ActorID returns the authenticated actor id set by Auth, or uuid.Nil
func ActorID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(actorKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// Auth validates the bearer token and stores the actor identity on the
// request context. Webhook routes bypass this; providers authenticate with
// their own signature schemes instead.
func Auth(secret string, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerr.CodeAuthentication,
				Message: "Missing bearer token",
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logger.Warn("Rejected API token", map[string]any{
				"path":  c.Request.URL.Path,
				"error": errString(err),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerr.CodeAuthentication,
				Message: "Invalid token",
			})
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerr.CodeAuthentication,
				Message: "Token has no subject",
			})
			return
		}
		actorID, err := uuid.Parse(subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerr.CodeAuthentication,
				Message: "Token subject is not a valid id",
			})
			return
		}

		c.Set(actorKey, actorID)
		c.Next()
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
