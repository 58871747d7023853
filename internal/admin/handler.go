// Package admin exposes the break-glass endpoints gated by a shared secret
// instead of a tenant role. Meant for operators, not end users.
package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowboard/backend/internal/auth"
	"github.com/flowboard/backend/internal/models"
	"github.com/flowboard/backend/pkg/response"
)

// secretRequest carries the secret in the body as an alternative to the
// x-admin-secret header.
type secretRequest struct {
	AdminSecret string `json:"adminSecret"`
}

// Handler handles operator admin endpoints.
type Handler struct {
	users  *auth.Repository
	secret string
	logger *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(users *auth.Repository, secret string, logger *zap.Logger) *Handler {
	return &Handler{users: users, secret: secret, logger: logger}
}

// RequireSecret validates the shared admin secret from the x-admin-secret
// header or the request body.
func (h *Handler) RequireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.secret == "" {
			response.Internal(c, "Admin secret not configured. Please set ADMIN_SECRET environment variable.")
			c.Abort()
			return
		}
		provided := c.GetHeader("x-admin-secret")
		if provided == "" {
			var req secretRequest
			if err := c.ShouldBindJSON(&req); err == nil {
				provided = req.AdminSecret
			}
		}
		if provided != h.secret {
			response.Unauthorized(c, "Invalid admin secret")
			c.Abort()
			return
		}
		c.Next()
	}
}

// VerifySecret handles POST /admin/verify-secret. Reaching the handler means
// the middleware already accepted the secret.
func (h *Handler) VerifySecret(c *gin.Context) {
	response.OK(c, gin.H{"valid": true})
}

// ListUsers handles GET /admin/users: every user across all companies.
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("list all users", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	if list == nil {
		list = []models.UserPublic{}
	}
	response.OK(c, list)
}

// SetAdmin handles POST /admin/set-admin/:userId.
func (h *Handler) SetAdmin(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	if user.IsAdmin() {
		response.BadRequest(c, "User is already an admin")
		return
	}
	if err := h.users.SetRole(c.Request.Context(), user.ID, models.RoleAdmin); err != nil {
		response.Internal(c, "failed to update user")
		return
	}
	user.Role = models.RoleAdmin
	response.OK(c, user.ToPublic())
}

// RemoveAdmin handles POST /admin/remove-admin/:userId. No last-admin guard
// here: operators may need to strip every admin from a tenant.
func (h *Handler) RemoveAdmin(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	if !user.IsAdmin() {
		response.BadRequest(c, "User is not an admin")
		return
	}
	if err := h.users.SetRole(c.Request.Context(), user.ID, models.RoleUser); err != nil {
		response.Internal(c, "failed to update user")
		return
	}
	user.Role = models.RoleUser
	response.OK(c, user.ToPublic())
}

func (h *Handler) loadUser(c *gin.Context) (*models.User, bool) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return nil, false
	}
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "User not found")
		return nil, false
	}
	return user, true
}
