package models

import "time"

type CustomerProfile struct {
	UserID      uint64    `gorm:"primarykey;autoIncrement:false" json:"user_id"`
	FullName    string    `gorm:"type:varchar(255)" json:"full_name"`
	Phone       string    `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Email       string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	RatingAvg   float64   `gorm:"not null;default:0" json:"rating_avg"`
	RatingCount int       `gorm:"not null;default:0" json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
