package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageKind string

const (
	MessageKindUser   MessageKind = "user"
	MessageKindSystem MessageKind = "system"
)

// TaskThread is the conversation between a task's customer and one helper.
type TaskThread struct {
	ID                 uint64        `gorm:"primarykey" json:"id"`
	Key                string        `gorm:"column:thread_key;type:varchar(100);uniqueIndex;not null" json:"key"`
	TaskID             uint64        `gorm:"not null;index" json:"task_id"`
	CustomerID         uint64        `gorm:"not null" json:"customer_id"`
	HelperID           uint64        `gorm:"not null" json:"helper_id"`
	LastMessagePreview string        `gorm:"type:varchar(255)" json:"last_message_preview"`
	LastMessageKind    MessageKind   `gorm:"type:varchar(10)" json:"last_message_kind,omitempty"`
	LastMessageAt      *time.Time    `json:"last_message_at"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	Messages           []ChatMessage `gorm:"foreignKey:ThreadID" json:"messages,omitempty"`
}

type ChatMessage struct {
	ID        string      `gorm:"type:varchar(36);primarykey" json:"id"`
	ThreadID  uint64      `gorm:"not null;index" json:"thread_id"`
	SenderID  *uint64     `json:"sender_id"`
	Kind      MessageKind `gorm:"type:varchar(10);not null" json:"kind"`
	Body      string      `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a random id when the caller did not.
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
