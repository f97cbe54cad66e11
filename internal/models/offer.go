package models

import "time"

type OfferStatus string

const (
	OfferStatusSubmitted OfferStatus = "SUBMITTED"
	OfferStatusAccepted  OfferStatus = "ACCEPTED"
	OfferStatusRejected  OfferStatus = "REJECTED"
	OfferStatusWithdrawn OfferStatus = "WITHDRAWN"
)

// Offer is a helper's bid against a task.
type Offer struct {
	ID        uint64      `gorm:"primarykey" json:"id"`
	TaskID    uint64      `gorm:"not null;index" json:"task_id"`
	HelperID  uint64      `gorm:"not null;index" json:"helper_id"`
	Price     int64       `gorm:"not null" json:"price"`
	EtaAt     time.Time   `gorm:"not null" json:"eta_at"`
	Message   string      `gorm:"type:text" json:"message"`
	Status    OfferStatus `gorm:"type:varchar(20);not null;default:'SUBMITTED';index" json:"status"`
	Version   uint64      `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
