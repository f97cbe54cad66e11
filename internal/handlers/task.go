package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskey/taskey-api/internal/dto"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/middleware"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/services"
	"github.com/taskey/taskey-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns tasks matching the query filters
// Without mine or assigned_to_me only open tasks are browsed
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListTasksInput{
		UserID:   userID,
		Category: c.Query("category"),
		Area:     c.Query("area"),
	}

	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		input.Status = &status
	}

	var err error
	if input.Mine, err = queryBool(c, "mine"); err != nil {
		apierrors.BadRequest(c, "Invalid mine")
		return
	}
	if input.AssignedToMe, err = queryBool(c, "assigned_to_me"); err != nil {
		apierrors.BadRequest(c, "Invalid assigned_to_me")
		return
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	userID, _ := middleware.GetUserID(c)
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, userID))
}

// CreateTask creates a new open task owned by the caller
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title         string     `json:"title" binding:"required,max=255"`
		Description   string     `json:"description"`
		Category      string     `json:"category"`
		Area          string     `json:"area"`
		ExactLocation string     `json:"exact_location"`
		BudgetMin     int64      `json:"budget_min"`
		BudgetMax     int64      `json:"budget_max"`
		Effort        string     `json:"effort"`
		RequiredTools []string   `json:"required_tools"`
		DueAt         *time.Time `json:"due_at"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		CustomerID:    userID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Area:          req.Area,
		ExactLocation: req.ExactLocation,
		BudgetMin:     req.BudgetMin,
		BudgetMax:     req.BudgetMax,
		Effort:        models.EffortTier(req.Effort),
		RequiredTools: req.RequiredTools,
		DueAt:         req.DueAt,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task, userID))
}

// CancelTask cancels an open or assigned task
func (h *TaskHandler) CancelTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.CancelTask(c.Request.Context(), taskID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, userID))
}

func queryBool(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
