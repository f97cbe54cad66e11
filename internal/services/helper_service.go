package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/journey"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrHelperNotFound      = apierrors.NotFoundError("helper profile not found")
	ErrHelperProfileExists = apierrors.ConflictError("helper profile already exists")
)

// HelperService handles helper onboarding and the journey projection
type HelperService struct {
	core       *Core
	thresholds journey.Thresholds
}

// NewHelperService creates a new HelperService
func NewHelperService(core *Core, thresholds journey.Thresholds) *HelperService {
	return &HelperService{
		core:       core,
		thresholds: thresholds,
	}
}

// HelperProfileInput represents the editable parts of a helper profile. Nil
// fields are left unchanged on update.
type HelperProfileInput struct {
	FullName          *string
	Phone             *string
	Email             *string
	ProfilePhotoURL   *string
	ServiceCategories []string
	ServiceAreas      []string
	AboutMe           *string
	IsAvailable       *bool
}

func (in HelperProfileInput) apply(h *models.HelperProfile) {
	setTrimmed := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setTrimmed(&h.FullName, in.FullName)
	setTrimmed(&h.Phone, in.Phone)
	setTrimmed(&h.Email, in.Email)
	setTrimmed(&h.ProfilePhotoURL, in.ProfilePhotoURL)
	setTrimmed(&h.AboutMe, in.AboutMe)
	if in.ServiceCategories != nil {
		h.ServiceCategories = normalizeList(in.ServiceCategories)
	}
	if in.ServiceAreas != nil {
		h.ServiceAreas = normalizeList(in.ServiceAreas)
	}
	if in.IsAvailable != nil {
		h.IsAvailable = *in.IsAvailable
	}
}

// Onboard creates the caller's helper profile, pending verification.
func (s *HelperService) Onboard(ctx context.Context, userID uint64, input HelperProfileInput) (*models.HelperProfile, error) {
	helper := &models.HelperProfile{
		UserID:             userID,
		VerificationStatus: models.VerificationPending,
		Stats:              models.HelperStats{ReliabilityLevel: models.ReliabilityGreen},
	}
	input.apply(helper)
	helper.RefreshProfileCompletion()

	err := s.core.withRepos(ctx, "onboard_helper", func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Helpers.FindByUserID(ctx, userID); err == nil {
			return ErrHelperProfileExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check helper profile: %w", err)
		}
		if err := repos.Helpers.Create(ctx, helper); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrHelperProfileExists
			}
			return fmt.Errorf("failed to create helper profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return helper, nil
}

// UpdateProfile edits the caller's helper profile and recomputes its
// completion. Verification and stats are not editable here.
func (s *HelperService) UpdateProfile(ctx context.Context, userID uint64, input HelperProfileInput) (*models.HelperProfile, error) {
	var helper *models.HelperProfile
	err := s.core.withRepos(ctx, "update_helper", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		helper, err = findHelper(ctx, repos, userID)
		if err != nil {
			return err
		}
		input.apply(helper)
		helper.RefreshProfileCompletion()
		return repos.Helpers.Update(ctx, helper)
	})
	if err != nil {
		return nil, err
	}
	return helper, nil
}

// GetProfile returns a helper profile
func (s *HelperService) GetProfile(ctx context.Context, userID uint64) (*models.HelperProfile, error) {
	var helper *models.HelperProfile
	err := s.core.withRepos(ctx, "get_helper", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		helper, err = findHelper(ctx, repos, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return helper, nil
}

// GetJourney derives the helper's journey from the stored profile. Nothing
// derived is persisted.
func (s *HelperService) GetJourney(ctx context.Context, userID uint64) (*models.HelperProfile, journey.Journey, error) {
	helper, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, journey.Journey{}, err
	}
	return helper, journey.Derive(*helper, s.thresholds), nil
}

func findHelper(ctx context.Context, repos repository.Repositories, userID uint64) (*models.HelperProfile, error) {
	helper, err := repos.Helpers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHelperNotFound
		}
		return nil, fmt.Errorf("failed to find helper profile: %w", err)
	}
	return helper, nil
}
