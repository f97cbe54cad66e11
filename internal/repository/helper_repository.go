package repository

import (
	"context"

	"github.com/taskey/taskey-api/internal/models"
	"gorm.io/gorm"
)

// GormHelperRepository is a GORM implementation of HelperRepository
type GormHelperRepository struct {
	db *gorm.DB
}

// NewHelperRepository creates a new HelperRepository
func NewHelperRepository(db *gorm.DB) HelperRepository {
	return &GormHelperRepository{db: db}
}

// Create creates a new helper profile
func (r *GormHelperRepository) Create(ctx context.Context, helper *models.HelperProfile) error {
	return r.db.WithContext(ctx).Create(helper).Error
}

// FindByUserID finds the helper profile of a user
func (r *GormHelperRepository) FindByUserID(ctx context.Context, userID uint64) (*models.HelperProfile, error) {
	var helper models.HelperProfile
	if err := r.db.WithContext(ctx).First(&helper, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &helper, nil
}

// helperEditableColumns are the columns a helper may change. Verification and
// stats belong to other processes and are never written back.
var helperEditableColumns = []string{
	"full_name", "phone", "email", "profile_photo_url",
	"service_categories", "service_areas", "about_me", "is_available",
	"profile_percent", "profile_missing",
}

// Update writes the editable columns of a helper profile
func (r *GormHelperRepository) Update(ctx context.Context, helper *models.HelperProfile) error {
	return r.db.WithContext(ctx).
		Model(helper).
		Select(helperEditableColumns).
		Updates(helper).Error
}

// ListEligible lists approved and available helpers, filtering category and
// area in memory because both are stored as JSON lists.
func (r *GormHelperRepository) ListEligible(ctx context.Context, category, area string, limit int) ([]models.HelperProfile, error) {
	var candidates []models.HelperProfile
	if err := r.db.WithContext(ctx).
		Where("verification_status = ? AND is_available = ?", models.VerificationApproved, true).
		Order("stats_rating_avg DESC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	eligible := make([]models.HelperProfile, 0, len(candidates))
	for _, h := range candidates {
		if category != "" && !h.Serves(category, area) {
			continue
		}
		eligible = append(eligible, h)
		if limit > 0 && len(eligible) == limit {
			break
		}
	}
	return eligible, nil
}
