package boards

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowboard/backend/internal/auth"
	"github.com/flowboard/backend/internal/companies"
	"github.com/flowboard/backend/internal/middleware"
	"github.com/flowboard/backend/internal/models"
	"github.com/flowboard/backend/internal/policy"
	"github.com/flowboard/backend/internal/realtime"
	"github.com/flowboard/backend/pkg/response"
)

// CreateRequest is the body for POST /boards. Assignees accepts either a
// single name or an array of names.
type CreateRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Assignees   interface{} `json:"assignees"`
}

// UpdateRequest is the body for PUT /boards/:id. Nil fields stay unchanged.
type UpdateRequest struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Assignees   interface{} `json:"assignees"`
}

// SectionRequest is the body for section create and update.
type SectionRequest struct {
	Name  string `json:"name"`
	Order *int   `json:"order"`
}

// Store is the persistence surface the board handlers need. *Repository
// implements it.
type Store interface {
	Create(ctx context.Context, b *models.Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error)
	ListVisible(ctx context.Context, companyID, userID uuid.UUID, userName string) ([]models.Board, error)
	Update(ctx context.Context, id uuid.UUID, name, description string, assignees []string) error
	UpdateSections(ctx context.Context, id uuid.UUID, sections []models.Section) error
	DeleteWithTasks(ctx context.Context, id uuid.UUID) error
	HasAssignedTask(ctx context.Context, boardID, companyID uuid.UUID, userName string) (bool, error)
	CountTasksWithStatus(ctx context.Context, boardID uuid.UUID, sectionID string) (int, error)
}

// Handler handles board HTTP endpoints.
type Handler struct {
	boards    Store
	users     *auth.Repository
	companies *companies.Repository
	hub       *realtime.Hub
	logger    *zap.Logger
}

// NewHandler creates a boards handler.
func NewHandler(boards Store, users *auth.Repository, companies *companies.Repository, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{boards: boards, users: users, companies: companies, hub: hub, logger: logger}
}

// coerceAssignees accepts a JSON string or array of strings for the assignee
// list. Anything else yields an empty list.
func coerceAssignees(v interface{}) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return []string{}
		}
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// List handles GET /boards: boards the caller owns, is assigned to, or holds
// an assigned task on. The same union applies to admins; the admin role widens
// single-board reads, not the list. A caller without a company gets an empty
// list, never a side effect.
func (h *Handler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user.CompanyID == nil {
		response.OK(c, []models.Board{})
		return
	}

	list, err := h.boards.ListVisible(c.Request.Context(), *user.CompanyID, user.ID, user.Name)
	if err != nil {
		h.logger.Error("list boards", zap.Error(err))
		response.Internal(c, "failed to load boards")
		return
	}
	if list == nil {
		list = []models.Board{}
	}
	response.OK(c, list)
}

// Create handles POST /boards. Only admins create boards; new boards start
// with the default workflow sections.
func (h *Handler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !user.IsAdmin() {
		response.Forbidden(c, "Only admins can create boards")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(c, "Board name is required")
		return
	}

	ctx := c.Request.Context()
	companyID, err := auth.EnsureCompany(ctx, h.users, h.companies, user)
	if err != nil {
		response.Internal(c, "failed to create board")
		return
	}

	board := &models.Board{
		Name:        req.Name,
		Description: req.Description,
		UserID:      user.ID,
		CompanyID:   companyID,
		Assignees:   coerceAssignees(req.Assignees),
		Sections:    models.DefaultSections(),
	}
	if err := h.boards.Create(ctx, board); err != nil {
		h.logger.Error("create board", zap.Error(err))
		response.Internal(c, "failed to create board")
		return
	}
	response.Created(c, board)
}

// Get handles GET /boards/:id. Visibility follows the board read policy; the
// cross-company case gets its own message.
func (h *Handler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}
	if !policy.SameCompany(user, board) {
		response.Forbidden(c, "Access denied. This board belongs to a different company.")
		return
	}

	hasTask, err := h.boards.HasAssignedTask(c.Request.Context(), board.ID, board.CompanyID, user.Name)
	if err != nil {
		response.Internal(c, "failed to load board")
		return
	}
	if !policy.CanReadBoard(user, board, hasTask) {
		response.Forbidden(c, "Access denied. You are not assigned to this board.")
		return
	}
	response.OK(c, board)
}

// Update handles PUT /boards/:id. Only the creator may edit board metadata.
func (h *Handler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}
	if !policy.CanWriteBoard(user, board) {
		response.Forbidden(c, "You do not have permission to update this board. Only the board creator can update it.")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Name != nil {
		if *req.Name == "" {
			response.BadRequest(c, "Board name is required")
			return
		}
		board.Name = *req.Name
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.Assignees != nil {
		board.Assignees = coerceAssignees(req.Assignees)
	}

	if err := h.boards.Update(c.Request.Context(), board.ID, board.Name, board.Description, board.Assignees); err != nil {
		h.logger.Error("update board", zap.Error(err))
		response.Internal(c, "failed to update board")
		return
	}
	response.OK(c, board)
}

// Delete handles DELETE /boards/:id. Only the creator may delete a board;
// the board's tasks go with it in the same transaction.
func (h *Handler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}
	if !policy.CanWriteBoard(user, board) {
		response.Forbidden(c, "You do not have permission to delete this board. Only the board creator can delete it.")
		return
	}
	if err := h.boards.DeleteWithTasks(c.Request.Context(), board.ID); err != nil {
		h.logger.Error("delete board", zap.Error(err))
		response.Internal(c, "failed to delete board")
		return
	}
	response.OK(c, gin.H{"message": "Board deleted successfully"})
}

// AddSection handles POST /boards/:id/sections. Admin only; the new section
// goes to the end of the workflow.
func (h *Handler) AddSection(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !user.IsAdmin() {
		response.Forbidden(c, "Only admins can add sections")
		return
	}
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}
	if !policy.SameCompany(user, board) {
		response.Forbidden(c, "Access denied. This board belongs to a different company.")
		return
	}

	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(c, "Section name is required")
		return
	}

	sections, added := appendSection(board.Sections, req.Name)
	if err := h.boards.UpdateSections(c.Request.Context(), board.ID, sections); err != nil {
		h.logger.Error("add section", zap.Error(err))
		response.Internal(c, "failed to add section")
		return
	}
	board.Sections = sections
	h.broadcastSections(board)
	response.Created(c, gin.H{"section": added, "sections": sections})
}

// UpdateSection handles PUT /boards/:id/sections/:sectionId. Renames and/or
// reorders one section; the section id never changes.
func (h *Handler) UpdateSection(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !user.IsAdmin() {
		response.Forbidden(c, "Only admins can update sections")
		return
	}
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}
	if !policy.SameCompany(user, board) {
		response.Forbidden(c, "Access denied. This board belongs to a different company.")
		return
	}

	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	sections, found := updateSection(board.Sections, c.Param("sectionId"), req.Name, req.Order)
	if !found {
		response.NotFound(c, "Section not found")
		return
	}
	if err := h.boards.UpdateSections(c.Request.Context(), board.ID, sections); err != nil {
		h.logger.Error("update section", zap.Error(err))
		response.Internal(c, "failed to update section")
		return
	}
	board.Sections = sections
	h.broadcastSections(board)
	response.OK(c, gin.H{"sections": sections})
}

// DeleteSection handles DELETE /boards/:id/sections/:sectionId. Deletion is
// refused while any task still sits in the section, and a board always keeps
// at least one section.
func (h *Handler) DeleteSection(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !user.IsAdmin() {
		response.Forbidden(c, "Only admins can delete sections")
		return
	}
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}
	if !policy.SameCompany(user, board) {
		response.Forbidden(c, "Access denied. This board belongs to a different company.")
		return
	}

	sectionID := c.Param("sectionId")
	if board.Section(sectionID) == nil {
		response.NotFound(c, "Section not found")
		return
	}
	if len(board.Sections) <= 1 {
		response.BadRequest(c, "Cannot delete the last section. A board must have at least one section.")
		return
	}

	count, err := h.boards.CountTasksWithStatus(c.Request.Context(), board.ID, sectionID)
	if err != nil {
		response.Internal(c, "failed to delete section")
		return
	}
	if err := policy.SectionDeleteAllowed(sectionID, count); err != nil {
		var inUse *policy.SectionInUseError
		if errors.As(err, &inUse) {
			response.Conflict(c, inUse.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	sections, _ := removeSection(board.Sections, sectionID)
	if err := h.boards.UpdateSections(c.Request.Context(), board.ID, sections); err != nil {
		h.logger.Error("delete section", zap.Error(err))
		response.Internal(c, "failed to delete section")
		return
	}
	board.Sections = sections
	h.broadcastSections(board)
	response.OK(c, gin.H{"sections": sections})
}

// loadBoard parses the :id param and fetches the board, writing the error
// response itself when either step fails.
func (h *Handler) loadBoard(c *gin.Context) (*models.Board, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid board id")
		return nil, false
	}
	board, err := h.boards.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "Board not found")
		return nil, false
	}
	return board, true
}

func (h *Handler) broadcastSections(board *models.Board) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastToBoardAndPublish(board.ID, realtime.EventSectionsChanged, gin.H{
		"board_id": board.ID,
		"sections": board.Sections,
	})
}
