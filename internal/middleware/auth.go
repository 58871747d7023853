package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flowboard/backend/internal/models"
	"github.com/flowboard/backend/pkg/response"
)

// ContextUser is the key for the loaded *models.User in gin context.
const ContextUser = "current_user"

// TokenValidator validates a bearer token and returns the user ID it carries.
type TokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// UserSource loads live user records. The token only conveys identity; role
// and company always come from the store.
type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Auth returns a middleware that validates the bearer token, re-fetches the
// user, and stores it in the context.
func Auth(tokens TokenValidator, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		userID, err := tokens.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || user == nil {
			response.Unauthorized(c, "user not found")
			c.Abort()
			return
		}
		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by Auth. Panics if Auth did not run.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(ContextUser).(*models.User)
}

// RequireAdmin allows only users whose live role is admin. Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, ok := c.Get(ContextUser)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		user, _ := userVal.(*models.User)
		if user == nil || !user.IsAdmin() {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
