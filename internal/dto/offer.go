package dto

import (
	"time"

	"github.com/taskey/taskey-api/internal/models"
)

// OfferDTO represents an offer in API responses
type OfferDTO struct {
	ID        uint64             `json:"id"`
	TaskID    uint64             `json:"task_id"`
	HelperID  uint64             `json:"helper_id"`
	Price     int64              `json:"price"`
	EtaAt     time.Time          `json:"eta_at"`
	Message   string             `json:"message"`
	Status    models.OfferStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// ToOfferDTO converts an Offer model to OfferDTO
func ToOfferDTO(offer models.Offer) OfferDTO {
	return OfferDTO{
		ID:        offer.ID,
		TaskID:    offer.TaskID,
		HelperID:  offer.HelperID,
		Price:     offer.Price,
		EtaAt:     offer.EtaAt,
		Message:   offer.Message,
		Status:    offer.Status,
		CreatedAt: offer.CreatedAt,
	}
}

// ToOfferDTOs converts a slice of offers
func ToOfferDTOs(offers []models.Offer) []OfferDTO {
	out := make([]OfferDTO, len(offers))
	for i, offer := range offers {
		out[i] = ToOfferDTO(offer)
	}
	return out
}
