package api

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"

	"github.com/cardwall/cardwall/internal/board/service"
	"github.com/cardwall/cardwall/internal/common/errors"
	"github.com/cardwall/cardwall/internal/common/httpmw"
	"github.com/cardwall/cardwall/internal/common/logger"
)

// Handler contains HTTP handlers for the board API
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  log,
	}
}

// respondError renders an error with the status carried by the AppError,
// falling back to 500. Server-side failures are logged; client errors are not.
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	status := errors.GetHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.InternalError(msg, err)
	}
	c.JSON(status, appErr)
}

// Board endpoints

// CreateBoard creates a new board owned by the caller
// POST /api/v1/boards
func (h *Handler) CreateBoard(c *gin.Context) {
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	board, err := h.service.CreateBoard(c.Request.Context(), httpmw.UserID(c), req.Name, req.Description)
	if err != nil {
		h.respondError(c, err, "failed to create board")
		return
	}

	c.JSON(http.StatusCreated, board.ToAPI())
}

// GetBoard retrieves a board by ID
// GET /api/v1/boards/:boardId
func (h *Handler) GetBoard(c *gin.Context) {
	boardID := c.Param("boardId")

	board, err := h.service.GetBoard(c.Request.Context(), httpmw.UserID(c), boardID)
	if err != nil {
		h.respondError(c, err, "failed to get board")
		return
	}

	c.JSON(http.StatusOK, board.ToAPI())
}

// GetBoardSnapshot returns the board with its lists and tasks in order
// GET /api/v1/boards/:boardId/full
func (h *Handler) GetBoardSnapshot(c *gin.Context) {
	boardID := c.Param("boardId")

	snapshot, err := h.service.GetBoardSnapshot(c.Request.Context(), httpmw.UserID(c), boardID)
	if err != nil {
		h.respondError(c, err, "failed to get board snapshot")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// UpdateBoard updates an existing board
// PUT /api/v1/boards/:boardId
func (h *Handler) UpdateBoard(c *gin.Context) {
	boardID := c.Param("boardId")

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	board, err := h.service.UpdateBoard(c.Request.Context(), httpmw.UserID(c), boardID, req.Name, req.Description)
	if err != nil {
		h.respondError(c, err, "failed to update board")
		return
	}

	c.JSON(http.StatusOK, board.ToAPI())
}

// DeleteBoard deletes a board
// DELETE /api/v1/boards/:boardId
func (h *Handler) DeleteBoard(c *gin.Context) {
	boardID := c.Param("boardId")

	if err := h.service.DeleteBoard(c.Request.Context(), httpmw.UserID(c), boardID); err != nil {
		h.respondError(c, err, "failed to delete board")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListBoards returns all boards the caller is a member of
// GET /api/v1/boards
func (h *Handler) ListBoards(c *gin.Context) {
	boards, err := h.service.ListBoards(c.Request.Context(), httpmw.UserID(c))
	if err != nil {
		h.respondError(c, err, "failed to list boards")
		return
	}

	resp := BoardsListResponse{
		Boards: make([]v1.Board, len(boards)),
		Total:  len(boards),
	}
	for i, b := range boards {
		resp.Boards[i] = b.ToAPI()
	}

	c.JSON(http.StatusOK, resp)
}

// List endpoints

// CreateList creates a new list at the end of a board
// POST /api/v1/boards/:boardId/lists
func (h *Handler) CreateList(c *gin.Context) {
	boardID := c.Param("boardId")

	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	list, err := h.service.CreateList(c.Request.Context(), httpmw.UserID(c), boardID, req.Title)
	if err != nil {
		h.respondError(c, err, "failed to create list")
		return
	}

	c.JSON(http.StatusCreated, list.ToAPI())
}

// ListLists returns all lists for a board in position order
// GET /api/v1/boards/:boardId/lists
func (h *Handler) ListLists(c *gin.Context) {
	boardID := c.Param("boardId")

	lists, err := h.service.ListLists(c.Request.Context(), httpmw.UserID(c), boardID)
	if err != nil {
		h.respondError(c, err, "failed to list lists")
		return
	}

	resp := ListsListResponse{
		Lists: make([]v1.List, len(lists)),
		Total: len(lists),
	}
	for i, l := range lists {
		resp.Lists[i] = l.ToAPI()
	}

	c.JSON(http.StatusOK, resp)
}

// GetList retrieves a list by ID
// GET /api/v1/lists/:listId
func (h *Handler) GetList(c *gin.Context) {
	listID := c.Param("listId")

	list, err := h.service.GetList(c.Request.Context(), httpmw.UserID(c), listID)
	if err != nil {
		h.respondError(c, err, "failed to get list")
		return
	}

	c.JSON(http.StatusOK, list.ToAPI())
}

// UpdateList renames a list
// PUT /api/v1/lists/:listId
func (h *Handler) UpdateList(c *gin.Context) {
	listID := c.Param("listId")

	var req UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	list, err := h.service.UpdateList(c.Request.Context(), httpmw.UserID(c), listID, req.Title)
	if err != nil {
		h.respondError(c, err, "failed to update list")
		return
	}

	c.JSON(http.StatusOK, list.ToAPI())
}

// DeleteList deletes a list and its tasks
// DELETE /api/v1/lists/:listId
func (h *Handler) DeleteList(c *gin.Context) {
	listID := c.Param("listId")

	if err := h.service.DeleteList(c.Request.Context(), httpmw.UserID(c), listID); err != nil {
		h.respondError(c, err, "failed to delete list")
		return
	}

	c.Status(http.StatusNoContent)
}

// MoveList repositions a list within its board
// PUT /api/v1/lists/:listId/move
func (h *Handler) MoveList(c *gin.Context) {
	listID := c.Param("listId")

	var req MoveListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	list, err := h.service.MoveList(c.Request.Context(), httpmw.UserID(c), listID, req.Position)
	if err != nil {
		h.respondError(c, err, "failed to move list")
		return
	}

	c.JSON(http.StatusOK, list.ToAPI())
}

// Task endpoints

// CreateTask creates a new task at the end of a list
// POST /api/v1/lists/:listId/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	listID := c.Param("listId")

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), httpmw.UserID(c), listID, req.Title, req.Description)
	if err != nil {
		h.respondError(c, err, "failed to create task")
		return
	}

	c.JSON(http.StatusCreated, task.ToAPI())
}

// ListTasks returns all tasks in a list in position order
// GET /api/v1/lists/:listId/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	listID := c.Param("listId")

	tasks, err := h.service.ListTasksByList(c.Request.Context(), httpmw.UserID(c), listID)
	if err != nil {
		h.respondError(c, err, "failed to list tasks")
		return
	}

	resp := TasksListResponse{
		Tasks: make([]v1.Task, len(tasks)),
		Total: len(tasks),
	}
	for i, t := range tasks {
		resp.Tasks[i] = t.ToAPI()
	}

	c.JSON(http.StatusOK, resp)
}

// GetTask retrieves a task by ID
// GET /api/v1/tasks/:taskId
func (h *Handler) GetTask(c *gin.Context) {
	taskID := c.Param("taskId")

	task, err := h.service.GetTask(c.Request.Context(), httpmw.UserID(c), taskID)
	if err != nil {
		h.respondError(c, err, "failed to get task")
		return
	}

	c.JSON(http.StatusOK, task.ToAPI())
}

// UpdateTask updates a task's title and description
// PUT /api/v1/tasks/:taskId
func (h *Handler) UpdateTask(c *gin.Context) {
	taskID := c.Param("taskId")

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	task, err := h.service.UpdateTask(c.Request.Context(), httpmw.UserID(c), taskID, req.Title, req.Description)
	if err != nil {
		h.respondError(c, err, "failed to update task")
		return
	}

	c.JSON(http.StatusOK, task.ToAPI())
}

// DeleteTask deletes a task
// DELETE /api/v1/tasks/:taskId
func (h *Handler) DeleteTask(c *gin.Context) {
	taskID := c.Param("taskId")

	if err := h.service.DeleteTask(c.Request.Context(), httpmw.UserID(c), taskID); err != nil {
		h.respondError(c, err, "failed to delete task")
		return
	}

	c.Status(http.StatusNoContent)
}

// MoveTask moves a task to a position within a destination list
// PUT /api/v1/tasks/:taskId/move
func (h *Handler) MoveTask(c *gin.Context) {
	taskID := c.Param("taskId")

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	task, err := h.service.MoveTask(c.Request.Context(), httpmw.UserID(c), taskID, req.ListID, req.Position, req.Origin)
	if err != nil {
		h.respondError(c, err, "failed to move task")
		return
	}

	c.JSON(http.StatusOK, task.ToAPI())
}

// Member endpoints

// AddMember adds a user to a board
// POST /api/v1/boards/:boardId/members
func (h *Handler) AddMember(c *gin.Context) {
	boardID := c.Param("boardId")

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	member, err := h.service.AddMember(c.Request.Context(), httpmw.UserID(c), boardID, req.UserID, v1.Role(req.Role))
	if err != nil {
		h.respondError(c, err, "failed to add member")
		return
	}

	c.JSON(http.StatusCreated, member.ToAPI())
}

// ListMembers returns a board's members, optionally filtered by ?q=
// GET /api/v1/boards/:boardId/members
func (h *Handler) ListMembers(c *gin.Context) {
	boardID := c.Param("boardId")
	query := c.Query("q")

	members, err := h.service.SearchMembers(c.Request.Context(), httpmw.UserID(c), boardID, query)
	if err != nil {
		h.respondError(c, err, "failed to list members")
		return
	}

	resp := MembersListResponse{
		Members: make([]v1.Member, len(members)),
		Total:   len(members),
	}
	for i, m := range members {
		resp.Members[i] = m.ToAPI()
	}

	c.JSON(http.StatusOK, resp)
}

// RemoveMember removes a user from a board
// DELETE /api/v1/boards/:boardId/members/:userId
func (h *Handler) RemoveMember(c *gin.Context) {
	boardID := c.Param("boardId")
	userID := c.Param("userId")

	if err := h.service.RemoveMember(c.Request.Context(), httpmw.UserID(c), boardID, userID); err != nil {
		h.respondError(c, err, "failed to remove member")
		return
	}

	c.Status(http.StatusNoContent)
}

// Activity endpoints

// ListActivity returns the board's recent activity, newest first
// GET /api/v1/boards/:boardId/activity
func (h *Handler) ListActivity(c *gin.Context) {
	boardID := c.Param("boardId")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			appErr := errors.BadRequest("limit must be a non-negative integer")
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		limit = n
	}

	activities, err := h.service.ListActivity(c.Request.Context(), httpmw.UserID(c), boardID, limit)
	if err != nil {
		h.respondError(c, err, "failed to list activity")
		return
	}

	resp := ActivityListResponse{
		Activities: make([]v1.Activity, len(activities)),
		Total:      len(activities),
	}
	for i, a := range activities {
		resp.Activities[i] = a.ToAPI()
	}

	c.JSON(http.StatusOK, resp)
}
