package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskey/taskey-api/internal/dto"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/middleware"
	"github.com/taskey/taskey-api/internal/services"
)

type CompletionHandler struct {
	completionService *services.CompletionService
}

func NewCompletionHandler(completionService *services.CompletionService) *CompletionHandler {
	return &CompletionHandler{
		completionService: completionService,
	}
}

// ToggleChecklistItem checks or unchecks one checklist item
func (h *CompletionHandler) ToggleChecklistItem(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	type ToggleRequest struct {
		Item    string `json:"item" binding:"required"`
		Checked *bool  `json:"checked" binding:"required"`
	}

	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.completionService.ToggleChecklistItem(c.Request.Context(), taskID, userID, req.Item, *req.Checked)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, userID))
}

// MarkComplete finishes an active task
func (h *CompletionHandler) MarkComplete(c *gin.Context) {
	h.transition(c, h.completionService.MarkComplete)
}

// DisputeCompletion contests a completed task
func (h *CompletionHandler) DisputeCompletion(c *gin.Context) {
	h.transition(c, h.completionService.DisputeCompletion)
}

// SubmitFeedback records the customer's rating of the helper
func (h *CompletionHandler) SubmitFeedback(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	type FeedbackRequest struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment" binding:"max=2000"`
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	feedback, err := h.completionService.SubmitFeedback(c.Request.Context(), services.SubmitFeedbackInput{
		TaskID:     taskID,
		CustomerID: userID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

func (h *CompletionHandler) transition(c *gin.Context, fn taskAction) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := fn(c.Request.Context(), taskID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task, userID))
}
