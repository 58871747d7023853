package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowboard/backend/internal/companies"
	"github.com/flowboard/backend/internal/middleware"
	"github.com/flowboard/backend/internal/models"
	"github.com/flowboard/backend/pkg/response"
	"github.com/flowboard/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetAdminRequest is the body for POST /auth/set-admin (break-glass promote by email).
type SetAdminRequest struct {
	Email       string `json:"email"`
	AdminSecret string `json:"adminSecret"`
}

// TokenResponse is the auth response: JWT plus the user and their company.
type TokenResponse struct {
	Token   string            `json:"token"`
	User    models.UserPublic `json:"user"`
	Company *models.Company   `json:"company"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users       *Repository
	companies   *companies.Repository
	jwt         *JWTService
	adminSecret string
	logger      *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users *Repository, companies *companies.Repository, jwt *JWTService, adminSecret string, logger *zap.Logger) *Handler {
	return &Handler{users: users, companies: companies, jwt: jwt, adminSecret: adminSecret, logger: logger}
}

// Register handles POST /auth/register. The registrant's company is resolved
// from the email domain (created on first use); the first user of a company
// becomes its admin.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		response.BadRequest(c, "Please provide name, email, and password")
		return
	}
	if len(req.Password) < 6 {
		response.BadRequest(c, "Password must be at least 6 characters")
		return
	}
	if !ValidEmail(req.Email) {
		response.BadRequest(c, "Please provide a valid email address")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.GetByEmail(ctx, req.Email); err == nil {
		response.BadRequest(c, "User already exists with this email")
		return
	}

	domain, err := ExtractDomain(req.Email)
	if err != nil {
		response.BadRequest(c, "Invalid email format")
		return
	}

	company, err := ResolveCompany(ctx, h.companies, domain)
	if err != nil {
		h.logger.Error("resolve company", zap.String("domain", domain), zap.Error(err))
		response.Internal(c, "failed to resolve company")
		return
	}

	existing, err := h.users.CountByCompany(ctx, company.ID)
	if err != nil {
		response.Internal(c, "failed to create user")
		return
	}
	role := models.RoleUser
	if existing == 0 {
		role = models.RoleAdmin
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.users.Create(ctx, req.Name, req.Email, hash, role, &company.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			response.BadRequest(c, "User already exists with this email")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic(), Company: company})
}

// Login handles POST /auth/login. Unknown email and wrong password produce
// the same error shape. Legacy accounts without a company are attached to one
// derived from the email domain; an existing company whose domain conflicts
// with the email's domain is rejected outright.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(c, "Please provide email and password")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		response.Unauthorized(c, "Invalid credentials")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "Invalid credentials")
		return
	}

	emailDomain, err := ExtractDomain(req.Email)
	if err != nil {
		response.BadRequest(c, "Invalid email format")
		return
	}

	var company *models.Company
	if user.CompanyID == nil {
		company, err = ResolveCompany(ctx, h.companies, emailDomain)
		if err != nil {
			response.Internal(c, "failed to resolve company")
			return
		}
		role := user.Role
		if n, err := h.users.CountByCompany(ctx, company.ID); err == nil && n == 0 {
			role = models.RoleAdmin
		}
		if err := h.users.AttachCompany(ctx, user.ID, company.ID, role); err != nil {
			response.Internal(c, "failed to assign company")
			return
		}
		user.CompanyID = &company.ID
		user.Role = role
	} else {
		company, err = h.companies.GetByID(ctx, *user.CompanyID)
		if err != nil {
			response.Internal(c, "failed to load company")
			return
		}
		if company.Domain != "" && company.Domain != emailDomain {
			response.Forbidden(c, "Email domain does not match company domain. Please contact support.")
			return
		}
		if company.Domain == "" {
			if err := h.companies.SetDomain(ctx, company.ID, emailDomain); err == nil {
				company.Domain = emailDomain
			}
		}
	}

	token, err := h.jwt.Generate(user.ID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic(), Company: company})
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var company *models.Company
	if user.CompanyID != nil {
		company, _ = h.companies.GetByID(c.Request.Context(), *user.CompanyID)
	}
	response.OK(c, gin.H{"user": user.ToPublic(), "company": company})
}

// ListCompanyUsers handles GET /auth/users: users in the caller's company.
func (h *Handler) ListCompanyUsers(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user.CompanyID == nil {
		response.OK(c, []models.UserPublic{})
		return
	}
	list, err := h.users.ListByCompany(c.Request.Context(), *user.CompanyID)
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// ListCompanies handles GET /auth/companies (public, for company selection).
func (h *Handler) ListCompanies(c *gin.Context) {
	list, err := h.companies.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list companies")
		return
	}
	response.OK(c, list)
}

// Promote handles POST /auth/promote-user/:userId (admin, same company).
func (h *Handler) Promote(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if !actor.IsAdmin() {
		response.Forbidden(c, "Only admins can promote users")
		return
	}
	if actor.CompanyID == nil {
		response.NotFound(c, "Admin user not found or has no company")
		return
	}
	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	ctx := c.Request.Context()
	target, err := h.users.GetByID(ctx, targetID)
	if err != nil {
		response.NotFound(c, "User not found")
		return
	}
	if !target.InCompany(*actor.CompanyID) {
		response.Forbidden(c, "You can only promote users in your own company")
		return
	}
	if target.ID == actor.ID {
		response.BadRequest(c, "You are already an admin")
		return
	}
	if target.IsAdmin() {
		response.BadRequest(c, "User is already an admin")
		return
	}

	if err := h.users.SetRole(ctx, target.ID, models.RoleAdmin); err != nil {
		response.Internal(c, "failed to promote user")
		return
	}
	target.Role = models.RoleAdmin
	response.OK(c, target.ToPublic())
}

// Demote handles POST /auth/demote-user/:userId (admin, same company).
// Demoting the last admin of a company is rejected.
func (h *Handler) Demote(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if !actor.IsAdmin() {
		response.Forbidden(c, "Only admins can demote users")
		return
	}
	if actor.CompanyID == nil {
		response.NotFound(c, "Admin user not found or has no company")
		return
	}
	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	ctx := c.Request.Context()
	target, err := h.users.GetByID(ctx, targetID)
	if err != nil {
		response.NotFound(c, "User not found")
		return
	}
	if !target.InCompany(*actor.CompanyID) {
		response.Forbidden(c, "You can only demote users in your own company")
		return
	}
	if target.ID == actor.ID {
		response.BadRequest(c, "You cannot demote yourself")
		return
	}
	if !target.IsAdmin() {
		response.BadRequest(c, "User is not an admin")
		return
	}

	admins, err := h.users.CountAdminsByCompany(ctx, *actor.CompanyID)
	if err != nil {
		response.Internal(c, "failed to demote user")
		return
	}
	if admins <= 1 {
		response.BadRequest(c, "Cannot demote the last admin in the company. At least one admin is required.")
		return
	}

	if err := h.users.SetRole(ctx, target.ID, models.RoleUser); err != nil {
		response.Internal(c, "failed to demote user")
		return
	}
	target.Role = models.RoleUser
	response.OK(c, target.ToPublic())
}

// SetAdmin handles POST /auth/set-admin: promote by email, gated on the shared
// admin secret rather than any tenant role.
func (h *Handler) SetAdmin(c *gin.Context) {
	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if h.adminSecret == "" {
		response.Internal(c, "Admin secret not configured. Please set ADMIN_SECRET environment variable.")
		return
	}
	if req.AdminSecret != h.adminSecret {
		response.Unauthorized(c, "Invalid admin secret")
		return
	}
	if req.Email == "" {
		response.BadRequest(c, "Email is required")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		response.NotFound(c, "User not found")
		return
	}
	if err := h.users.SetRole(ctx, user.ID, models.RoleAdmin); err != nil {
		response.Internal(c, "failed to set admin")
		return
	}
	user.Role = models.RoleAdmin
	response.OK(c, user.ToPublic())
}
