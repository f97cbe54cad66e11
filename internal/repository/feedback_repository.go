package repository

import (
	"context"

	"github.com/taskey/taskey-api/internal/models"
	"gorm.io/gorm"
)

// GormFeedbackRepository is a GORM implementation of FeedbackRepository
type GormFeedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

// Create creates a feedback entry
func (r *GormFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

// FindByTaskAndCustomer finds the customer's feedback on a task
func (r *GormFeedbackRepository) FindByTaskAndCustomer(ctx context.Context, taskID, customerID uint64) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND customer_id = ?", taskID, customerID).
		First(&feedback).Error; err != nil {
		return nil, err
	}
	return &feedback, nil
}

// ExistsForTask reports whether any feedback was left on the task
func (r *GormFeedbackRepository) ExistsForTask(ctx context.Context, taskID uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Feedback{}).Where("task_id = ?", taskID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
