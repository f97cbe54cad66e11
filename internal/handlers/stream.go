package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskey/taskey-api/internal/dto"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/middleware"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/realtime"
	"github.com/taskey/taskey-api/internal/services"
)

// taskAction is a state-machine operation performed by userID on taskID.
type taskAction func(ctx context.Context, taskID, userID uint64) (*models.Task, error)

type StreamHandler struct {
	taskService *services.TaskService
	hub         *realtime.Hub
}

func NewStreamHandler(taskService *services.TaskService, hub *realtime.Hub) *StreamHandler {
	return &StreamHandler{
		taskService: taskService,
		hub:         hub,
	}
}

// StreamTask pushes the latest task snapshot after every committed change.
// Access is re-checked per snapshot; a viewer who loses it gets a revoked
// event and the stream ends.
func (h *StreamHandler) StreamTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if h.hub == nil {
		apierrors.ServiceUnavailable(c, "Realtime updates are not enabled")
		return
	}

	ctx := c.Request.Context()
	updates, unsubscribe := h.hub.Subscribe(ctx, realtime.TaskTopic(taskID))
	defer unsubscribe()

	task, err := h.taskService.GetTask(ctx, taskID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	startEventStream(c)
	c.SSEvent(services.EventTaskUpdated, dto.ToTaskDTO(*task, userID))
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-updates:
			if !open {
				return
			}
			snapshot, isTask := ev.Payload.(models.Task)
			if !isTask {
				continue
			}
			if !snapshot.CanView(userID) {
				c.SSEvent("revoked", gin.H{"task_id": taskID})
				c.Writer.Flush()
				return
			}
			c.SSEvent(ev.Type, dto.ToTaskDTO(snapshot, userID))
			c.Writer.Flush()
		}
	}
}

func startEventStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}
