package tasks

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowboard/backend/internal/activity"
	"github.com/flowboard/backend/internal/boards"
	"github.com/flowboard/backend/internal/middleware"
	"github.com/flowboard/backend/internal/models"
	"github.com/flowboard/backend/internal/policy"
	"github.com/flowboard/backend/internal/realtime"
	"github.com/flowboard/backend/pkg/response"
)

// CreateRequest is the body for POST /tasks.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`
	BoardID     string `json:"boardId"`
}

// Handler handles task HTTP endpoints.
type Handler struct {
	tasks    *Repository
	boards   *boards.Repository
	activity *activity.Repository
	hub      *realtime.Hub
	logger   *zap.Logger
}

// NewHandler creates a tasks handler.
func NewHandler(tasks *Repository, boards *boards.Repository, activity *activity.Repository, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{tasks: tasks, boards: boards, activity: activity, hub: hub, logger: logger}
}

// ListByBoard handles GET /tasks/:id where the id names a board. Requires
// board visibility.
func (h *Handler) ListByBoard(c *gin.Context) {
	user := middleware.CurrentUser(c)
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid board id")
		return
	}

	ctx := c.Request.Context()
	board, err := h.boards.GetByID(ctx, boardID)
	if err != nil {
		response.NotFound(c, "Board not found")
		return
	}
	if !policy.SameCompany(user, board) {
		response.Forbidden(c, "Access denied. This board belongs to a different company.")
		return
	}
	hasTask, err := h.boards.HasAssignedTask(ctx, board.ID, board.CompanyID, user.Name)
	if err != nil {
		response.Internal(c, "failed to load tasks")
		return
	}
	if !policy.CanReadBoard(user, board, hasTask) {
		response.Forbidden(c, "Access denied. You are not assigned to this board.")
		return
	}

	list, err := h.tasks.ListByBoard(ctx, board.ID, board.CompanyID)
	if err != nil {
		h.logger.Error("list tasks", zap.Error(err))
		response.Internal(c, "failed to load tasks")
		return
	}
	if list == nil {
		list = []models.Task{}
	}
	response.OK(c, list)
}

// Create handles POST /tasks. Status defaults to the board's first section,
// priority to medium; creation writes the task's first activity record.
func (h *Handler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Title == "" {
		response.BadRequest(c, "Task title is required")
		return
	}
	if req.BoardID == "" {
		response.BadRequest(c, "Board ID is required")
		return
	}
	boardID, err := uuid.Parse(req.BoardID)
	if err != nil {
		response.BadRequest(c, "invalid board id")
		return
	}

	ctx := c.Request.Context()
	board, err := h.boards.GetByID(ctx, boardID)
	if err != nil {
		response.NotFound(c, "Board not found")
		return
	}
	if !policy.SameCompany(user, board) {
		response.Forbidden(c, "Access denied. This board belongs to a different company.")
		return
	}
	if !policy.CanCreateTask(user, board) {
		response.Forbidden(c, "You do not have permission to create tasks in this board")
		return
	}

	status := req.Status
	if status == "" {
		if len(board.Sections) == 0 {
			response.BadRequest(c, "Board has no sections")
			return
		}
		status = board.Sections[0].ID
	} else if err := policy.ValidateStatus(board, status); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = string(models.PriorityMedium)
	} else if !models.ValidPriority(priority) {
		response.BadRequest(c, ErrInvalidPriority.Error())
		return
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    models.Priority(priority),
		Assignee:    req.Assignee,
		UserID:      user.ID,
		BoardID:     board.ID,
		CompanyID:   board.CompanyID,
	}
	if err := h.tasks.Create(ctx, task); err != nil {
		h.logger.Error("create task", zap.Error(err))
		response.Internal(c, "failed to create task")
		return
	}

	rec := models.TaskActivity{
		TaskID:   task.ID,
		UserID:   user.ID,
		UserName: user.Name,
		Action:   models.ActionCreated,
		Field:    models.FieldAll,
		NewValue: task.Title,
	}
	if err := h.activity.Append(ctx, rec); err != nil {
		h.logger.Warn("append create activity", zap.String("task_id", task.ID.String()), zap.Error(err))
	}

	h.broadcast(board.ID, realtime.EventTaskCreated, gin.H{"task": task})
	response.Created(c, task)
}

// Update handles PUT /tasks/:id. Moving between sections and editing fields
// carry separate permissions; every changed field gets an activity record. A
// request that changes nothing succeeds without writing anything.
func (h *Handler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	board, err := h.boards.GetByID(ctx, task.BoardID)
	if err != nil {
		response.NotFound(c, "Board not found")
		return
	}
	if !policy.SameCompany(user, board) {
		response.Forbidden(c, "Access denied. This board belongs to a different company.")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Title != nil && *req.Title == "" {
		response.BadRequest(c, "Task title is required")
		return
	}

	ch := DetectChanges(task, req)
	if !ch.Any() {
		response.OK(c, task)
		return
	}

	if ch.FieldEdit() && !policy.CanEditTaskFields(user, task) {
		response.Forbidden(c, "You do not have permission to update this task")
		return
	}
	if ch.Status {
		hasTask, err := h.boards.HasAssignedTask(ctx, board.ID, board.CompanyID, user.Name)
		if err != nil {
			response.Internal(c, "failed to update task")
			return
		}
		if !policy.CanMoveTask(user, board, hasTask) {
			response.Forbidden(c, "You do not have permission to move tasks in this board")
			return
		}
	}

	updated, recs, err := BuildChangeSet(task, board, user, req, ch)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.tasks.Update(ctx, &updated); err != nil {
		h.logger.Error("update task", zap.Error(err))
		response.Internal(c, "failed to update task")
		return
	}
	if err := h.activity.AppendAll(ctx, recs); err != nil {
		h.logger.Warn("append update activity", zap.String("task_id", task.ID.String()), zap.Error(err))
	}

	h.broadcast(board.ID, realtime.EventTaskUpdated, gin.H{"task": updated})
	response.OK(c, updated)
}

// Delete handles DELETE /tasks/:id. Admin or task creator only. The deletion
// activity is written before the row goes away so the audit trail survives.
func (h *Handler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	if user.CompanyID == nil || *user.CompanyID != task.CompanyID {
		response.Forbidden(c, "Access denied. This board belongs to a different company.")
		return
	}
	if !policy.CanDeleteTask(user, task) {
		response.Forbidden(c, "You do not have permission to delete this task. Only the task creator or admins can delete tasks.")
		return
	}

	ctx := c.Request.Context()
	rec := models.TaskActivity{
		TaskID:   task.ID,
		UserID:   user.ID,
		UserName: user.Name,
		Action:   models.ActionDeleted,
		Field:    models.FieldAll,
		OldValue: task.Title,
	}
	if err := h.activity.Append(ctx, rec); err != nil {
		h.logger.Warn("append delete activity", zap.String("task_id", task.ID.String()), zap.Error(err))
	}
	if err := h.tasks.Delete(ctx, task.ID); err != nil {
		h.logger.Error("delete task", zap.Error(err))
		response.Internal(c, "failed to delete task")
		return
	}

	h.broadcast(task.BoardID, realtime.EventTaskDeleted, gin.H{"task_id": task.ID, "board_id": task.BoardID})
	response.OK(c, gin.H{"message": "Task deleted successfully"})
}

// Activity handles GET /tasks/:id/activity, newest-first, capped at 100.
func (h *Handler) Activity(c *gin.Context) {
	user := middleware.CurrentUser(c)
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	if user.CompanyID == nil || *user.CompanyID != task.CompanyID {
		response.Forbidden(c, "Access denied. This board belongs to a different company.")
		return
	}

	ctx := c.Request.Context()
	board, err := h.boards.GetByID(ctx, task.BoardID)
	if err != nil {
		response.NotFound(c, "Board not found")
		return
	}
	if !policy.CanReadTaskActivity(user, board, task) {
		response.Forbidden(c, "You do not have permission to view this task's activity")
		return
	}

	list, err := h.activity.ListByTask(ctx, task.ID, activity.DefaultLimit)
	if err != nil {
		h.logger.Error("list activity", zap.Error(err))
		response.Internal(c, "failed to load activity")
		return
	}
	if list == nil {
		list = []models.TaskActivity{}
	}
	response.OK(c, list)
}

func (h *Handler) loadTask(c *gin.Context) (*models.Task, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return nil, false
	}
	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "Task not found")
		return nil, false
	}
	return task, true
}

func (h *Handler) broadcast(boardID uuid.UUID, event string, payload interface{}) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastToBoardAndPublish(boardID, event, payload)
}
