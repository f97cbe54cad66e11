package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskey/taskey-api/internal/constants"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/models"
)

// TaskLoader loads a task on behalf of a viewer, failing with not-found for
// tasks the viewer may not see.
type TaskLoader interface {
	GetTask(ctx context.Context, taskID, viewerID uint64) (*models.Task, error)
}

// RequireTaskAccess checks if the user may view the task in the :id param
// and stores it in the context
func RequireTaskAccess(loader TaskLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, ok := ParseIDParam(c, "id")
		if !ok {
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		task, err := loader.GetTask(c.Request.Context(), taskID, userID)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task stored by RequireTaskAccess
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}

// ParseIDParam parses a numeric path parameter, responding 400 when invalid
func ParseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
