package repository

import (
	"context"

	"github.com/taskey/taskey-api/internal/models"
	"gorm.io/gorm"
)

// GormOfferRepository is a GORM implementation of OfferRepository
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new OfferRepository
func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &GormOfferRepository{db: db}
}

// Create creates a new offer
func (r *GormOfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	if offer.Version == 0 {
		offer.Version = 1
	}
	return r.db.WithContext(ctx).Create(offer).Error
}

// FindByID finds an offer by ID
func (r *GormOfferRepository) FindByID(ctx context.Context, id uint64) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).First(&offer, id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListByTask lists offers on a task, oldest first
func (r *GormOfferRepository) ListByTask(ctx context.Context, taskID uint64, helperID *uint64) ([]models.Offer, error) {
	var offers []models.Offer
	query := r.db.WithContext(ctx).Where("task_id = ?", taskID)
	if helperID != nil {
		query = query.Where("helper_id = ?", *helperID)
	}
	if err := query.Order("created_at ASC").Order("id ASC").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// FindSubmittedByHelper finds the helper's pending offer on a task
func (r *GormOfferRepository) FindSubmittedByHelper(ctx context.Context, taskID, helperID uint64) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND helper_id = ? AND status = ?", taskID, helperID, models.OfferStatusSubmitted).
		First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// UpdateVersioned saves the offer guarded by its version
func (r *GormOfferRepository) UpdateVersioned(ctx context.Context, offer *models.Offer) error {
	current := offer.Version
	offer.Version = current + 1

	result := r.db.WithContext(ctx).
		Model(offer).
		Where("version = ?", current).
		Select("*").
		Omit("id", "created_at").
		Updates(offer)
	if result.Error != nil {
		offer.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		offer.Version = current
		return ErrStaleWrite
	}
	return nil
}

// RejectSubmitted rejects every other pending offer on the task
func (r *GormOfferRepository) RejectSubmitted(ctx context.Context, taskID, keepID uint64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("task_id = ? AND id <> ? AND status = ?", taskID, keepID, models.OfferStatusSubmitted).
		Updates(map[string]interface{}{
			"status":  models.OfferStatusRejected,
			"version": gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}
