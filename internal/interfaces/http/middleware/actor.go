package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/logger"
	"github.com/backoffice/backend/internal/interfaces/http/dto"
)

const actorContextKey = "actor"

// Actor reads the caller identity from the X-Actor-ID and X-Actor-Role
// headers and stores it in the request context. Requests without a
// valid identity are rejected with 401. Identity verification itself is
// delegated to the edge proxy; this layer only trusts its headers.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.GetHeader("X-Actor-ID")
		rawRole := c.GetHeader("X-Actor-Role")

		if rawID == "" || rawRole == "" {
			abortUnauthorized(c, "missing actor identity headers")
			return
		}

		actorID, err := uuid.Parse(rawID)
		if err != nil {
			abortUnauthorized(c, "invalid actor id")
			return
		}

		role := shared.ActorRole(rawRole)
		switch role {
		case shared.RoleCustomer, shared.RoleStaff, shared.RoleAdmin:
		default:
			abortUnauthorized(c, "invalid actor role")
			return
		}

		c.Set(actorContextKey, shared.NewActor(actorID, role))

		// Tag downstream logs with the acting user.
		ctx, _ := logger.WithActorID(c.Request.Context(), logger.FromContext(c.Request.Context()), rawID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireStaff rejects requests whose actor is not a back-office role.
// It must run after Actor.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortUnauthorized(c, "missing actor identity")
			return
		}
		if !actor.Role.IsStaff() {
			requestID := c.GetString("request_id")
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "staff role required", requestID))
			return
		}
		c.Next()
	}
}

// GetActor returns the actor stored by the Actor middleware
func GetActor(c *gin.Context) (shared.Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return shared.Actor{}, false
	}
	actor, ok := value.(shared.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, requestID))
}
