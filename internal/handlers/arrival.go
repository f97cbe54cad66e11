package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskey/taskey-api/internal/arrival"
	"github.com/taskey/taskey-api/internal/dto"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/middleware"
	"github.com/taskey/taskey-api/internal/services"
)

type ArrivalHandler struct {
	arrivalService *services.ArrivalService
}

func NewArrivalHandler(arrivalService *services.ArrivalService) *ArrivalHandler {
	return &ArrivalHandler{
		arrivalService: arrivalService,
	}
}

// GetStatus returns the derived arrival state and countdown
func (h *ArrivalHandler) GetStatus(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	snap, err := h.arrivalService.Status(c.Request.Context(), taskID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// StreamCountdown pushes one arrival snapshot per tick as server-sent events
// until the client disconnects or the arrival is confirmed
func (h *ArrivalHandler) StreamCountdown(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	started := false
	err := h.arrivalService.WatchCountdown(c.Request.Context(), taskID, userID, func(snap arrival.Snapshot) bool {
		if !started {
			startEventStream(c)
			started = true
		}
		c.SSEvent("countdown", snap)
		c.Writer.Flush()
		return c.Request.Context().Err() == nil
	})

	switch {
	case err == nil:
	case errors.Is(err, services.ErrAccessRevoked) && started:
		c.SSEvent("revoked", gin.H{"message": err.Error()})
		c.Writer.Flush()
	case !started:
		apierrors.Respond(c, err)
	}
}

// CheckIn records the assigned helper's arrival within the check-in window
func (h *ArrivalHandler) CheckIn(c *gin.Context) {
	h.transition(c, h.arrivalService.CheckIn)
}

// RequestLateStart asks the customer to accept a late arrival
func (h *ArrivalHandler) RequestLateStart(c *gin.Context) {
	h.transition(c, h.arrivalService.RequestLateStart)
}

// ConfirmArrival lets the customer confirm the helper has arrived
func (h *ArrivalHandler) ConfirmArrival(c *gin.Context) {
	h.transition(c, h.arrivalService.ConfirmArrival)
}

func (h *ArrivalHandler) transition(c *gin.Context, fn taskAction) {
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
