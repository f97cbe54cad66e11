package dto

import (
	"github.com/taskey/taskey-api/internal/journey"
	"github.com/taskey/taskey-api/internal/models"
)

// HelperPublicDTO is the part of a helper profile any user may see
type HelperPublicDTO struct {
	UserID             uint64                    `json:"user_id"`
	FullName           string                    `json:"full_name"`
	ProfilePhotoURL    string                    `json:"profile_photo_url,omitempty"`
	ServiceCategories  []string                  `json:"service_categories"`
	ServiceAreas       []string                  `json:"service_areas"`
	AboutMe            string                    `json:"about_me"`
	IsAvailable        bool                      `json:"is_available"`
	VerificationStatus models.VerificationStatus `json:"verification_status"`
	RatingAvg          float64                   `json:"rating_avg"`
	JobsCompleted      int                       `json:"jobs_completed"`
	ReliabilityLevel   models.ReliabilityLevel   `json:"reliability_level"`
}

// HelperJourneyResponse pairs the caller's profile with its derived journey
type HelperJourneyResponse struct {
	Profile models.HelperProfile `json:"profile"`
	Journey journey.Journey      `json:"journey"`
}

// ToHelperPublicDTO converts a HelperProfile to HelperPublicDTO
func ToHelperPublicDTO(h models.HelperProfile) HelperPublicDTO {
	return HelperPublicDTO{
		UserID:             h.UserID,
		FullName:           h.FullName,
		ProfilePhotoURL:    h.ProfilePhotoURL,
		ServiceCategories:  nonNil(h.ServiceCategories),
		ServiceAreas:       nonNil(h.ServiceAreas),
		AboutMe:            h.AboutMe,
		IsAvailable:        h.IsAvailable,
		VerificationStatus: h.VerificationStatus,
		RatingAvg:          h.Stats.RatingAvg,
		JobsCompleted:      h.Stats.JobsCompleted,
		ReliabilityLevel:   h.Stats.ReliabilityLevel,
	}
}

// ToHelperPublicDTOs converts a slice of helper profiles
func ToHelperPublicDTOs(helpers []models.HelperProfile) []HelperPublicDTO {
	out := make([]HelperPublicDTO, len(helpers))
	for i, h := range helpers {
		out[i] = ToHelperPublicDTO(h)
	}
	return out
}
