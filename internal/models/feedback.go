package models

import "time"

// Feedback is the customer's single review of a completed task.
type Feedback struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	TaskID     uint64    `gorm:"not null;uniqueIndex:idx_feedback_task_customer" json:"task_id"`
	CustomerID uint64    `gorm:"not null;uniqueIndex:idx_feedback_task_customer" json:"customer_id"`
	HelperID   uint64    `gorm:"not null;index" json:"helper_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}
