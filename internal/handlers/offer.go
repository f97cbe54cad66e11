package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskey/taskey-api/internal/dto"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/middleware"
	"github.com/taskey/taskey-api/internal/services"
)

type OfferHandler struct {
	offerService *services.OfferService
}

func NewOfferHandler(offerService *services.OfferService) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
	}
}

// SubmitOffer lets a helper bid on an open task
func (h *OfferHandler) SubmitOffer(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	type SubmitOfferRequest struct {
		Price   int64     `json:"price"`
		EtaAt   time.Time `json:"eta_at"`
		Message string    `json:"message"`
	}

	var req SubmitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	offer, err := h.offerService.SubmitOffer(c.Request.Context(), services.SubmitOfferInput{
		TaskID:   taskID,
		HelperID: userID,
		Price:    req.Price,
		EtaAt:    req.EtaAt,
		Message:  req.Message,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOfferDTO(*offer))
}

// ListOffers returns all offers to the owner and the caller's own offers to helpers
func (h *OfferHandler) ListOffers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	offers, err := h.offerService.ListOffers(c.Request.Context(), taskID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"offers": dto.ToOfferDTOs(offers),
	})
}

// AcceptOffer assigns the task to the offer's helper
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}
	offerID, ok := middleware.ParseIDParam(c, "offerId")
	if !ok {
		return
	}

	task, offer, err := h.offerService.AcceptOffer(c.Request.Context(), taskID, offerID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":  dto.ToTaskDTO(*task, userID),
		"offer": dto.ToOfferDTO(*offer),
	})
}

// WithdrawOffer lets a helper take back a submitted offer
func (h *OfferHandler) WithdrawOffer(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}
	offerID, ok := middleware.ParseIDParam(c, "offerId")
	if !ok {
		return
	}

	offer, err := h.offerService.WithdrawOffer(c.Request.Context(), taskID, offerID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOfferDTO(*offer))
}
