package repository

import (
	"context"
	"time"

	"github.com/taskey/taskey-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormThreadRepository is a GORM implementation of ThreadRepository
type GormThreadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new ThreadRepository
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &GormThreadRepository{db: db}
}

// FindOrCreate inserts the thread unless one with the same key exists, then
// returns the stored row.
func (r *GormThreadRepository) FindOrCreate(ctx context.Context, thread *models.TaskThread) (*models.TaskThread, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "thread_key"}},
		DoNothing: true,
	}).Create(thread).Error; err != nil {
		return nil, err
	}
	return r.FindByKey(ctx, thread.Key, false)
}

// FindByKey finds a thread by its pairing key
func (r *GormThreadRepository) FindByKey(ctx context.Context, key string, withMessages bool) (*models.TaskThread, error) {
	var thread models.TaskThread
	query := r.db.WithContext(ctx)
	if withMessages {
		query = query.Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_messages.created_at ASC")
		})
	}
	if err := query.Where("thread_key = ?", key).First(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

// AppendMessage stores a message in a thread
func (r *GormThreadRepository) AppendMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// UpdatePreview updates the thread's last-message metadata
func (r *GormThreadRepository) UpdatePreview(ctx context.Context, threadID uint64, preview string, kind models.MessageKind, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.TaskThread{}).
		Where("id = ?", threadID).
		Updates(map[string]interface{}{
			"last_message_preview": preview,
			"last_message_kind":    kind,
			"last_message_at":      at,
		}).Error
}
