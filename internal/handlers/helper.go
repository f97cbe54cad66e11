package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskey/taskey-api/internal/dto"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/middleware"
	"github.com/taskey/taskey-api/internal/services"
)

type HelperHandler struct {
	helperService         *services.HelperService
	recommendationService *services.RecommendationService
}

func NewHelperHandler(helperService *services.HelperService, recommendationService *services.RecommendationService) *HelperHandler {
	return &HelperHandler{
		helperService:         helperService,
		recommendationService: recommendationService,
	}
}

// helperProfileRequest carries the editable profile fields. Omitted fields
// are left unchanged on update.
type helperProfileRequest struct {
	FullName          *string  `json:"full_name" binding:"omitempty,max=255"`
	Phone             *string  `json:"phone" binding:"omitempty,max=32"`
	Email             *string  `json:"email" binding:"omitempty,email"`
	ProfilePhotoURL   *string  `json:"profile_photo_url" binding:"omitempty,max=512"`
	ServiceCategories []string `json:"service_categories"`
	ServiceAreas      []string `json:"service_areas"`
	AboutMe           *string  `json:"about_me"`
	IsAvailable       *bool    `json:"is_available"`
}

func (r helperProfileRequest) input() services.HelperProfileInput {
	return services.HelperProfileInput{
		FullName:          r.FullName,
		Phone:             r.Phone,
		Email:             r.Email,
		ProfilePhotoURL:   r.ProfilePhotoURL,
		ServiceCategories: r.ServiceCategories,
		ServiceAreas:      r.ServiceAreas,
		AboutMe:           r.AboutMe,
		IsAvailable:       r.IsAvailable,
	}
}

// Onboard creates the caller's helper profile
func (h *HelperHandler) Onboard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req helperProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, err := h.helperService.Onboard(c.Request.Context(), userID, req.input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// UpdateProfile edits the caller's helper profile
func (h *HelperHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req helperProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	profile, err := h.helperService.UpdateProfile(c.Request.Context(), userID, req.input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetJourney returns the caller's profile with its derived journey
func (h *HelperHandler) GetJourney(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	profile, journey, err := h.helperService.GetJourney(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.HelperJourneyResponse{
		Profile: *profile,
		Journey: journey,
	})
}

// GetPublicProfile returns the public view of any helper
func (h *HelperHandler) GetPublicProfile(c *gin.Context) {
	helperID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.helperService.GetProfile(c.Request.Context(), helperID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToHelperPublicDTO(*profile))
}

// SuggestSkills proposes service categories from the caller's about text
func (h *HelperHandler) SuggestSkills(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	skills, err := h.recommendationService.SuggestSkills(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": skills,
	})
}

// RecommendedHelpers ranks eligible helpers for the caller's task
func (h *HelperHandler) RecommendedHelpers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		return
	}

	helpers, err := h.recommendationService.RecommendedHelpers(c.Request.Context(), taskID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"helpers": dto.ToHelperPublicDTOs(helpers),
	})
}
