package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/taskey/taskey-api/internal/constants"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/repository"
)

// RecommendationService wraps the advisory AI collaborator. Collaborator
// failures and timeouts yield empty results, never errors.
type RecommendationService struct {
	core        *Core
	recommender Recommender
	timeout     time.Duration
}

// NewRecommendationService creates a new RecommendationService. A nil
// recommender disables suggestions.
func NewRecommendationService(core *Core, recommender Recommender, timeout time.Duration) *RecommendationService {
	if timeout <= 0 {
		timeout = constants.DefaultRecommendationTimeout
	}
	return &RecommendationService{
		core:        core,
		recommender: recommender,
		timeout:     timeout,
	}
}

// RecommendedHelpers ranks eligible helpers for the owner's task.
func (s *RecommendationService) RecommendedHelpers(ctx context.Context, taskID, customerID uint64) ([]models.HelperProfile, error) {
	var (
		task       *models.Task
		candidates []models.HelperProfile
	)
	err := s.core.withRepos(ctx, "recommended_helpers", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		task, err = loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if task.CustomerID != customerID {
			return ErrNotTaskOwner
		}
		candidates, err = repos.Helpers.ListEligible(ctx, task.Category, task.Area, constants.MaxRecommendationCandidates)
		return err
	})
	if err != nil {
		return nil, err
	}

	filtered := candidates[:0]
	for _, h := range candidates {
		if h.UserID != task.CustomerID {
			filtered = append(filtered, h)
		}
	}
	if s.recommender == nil || len(filtered) == 0 {
		return []models.HelperProfile{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	ids, err := s.recommender.RankHelpers(ctx, task, filtered)
	s.core.metrics.ObserveCollaborator("recommender", start, err)
	if err != nil {
		log.Printf("helper recommendation for task %d failed: %v", taskID, err)
		return []models.HelperProfile{}, nil
	}

	return rankByIDs(filtered, ids, constants.MaxRecommendedHelpers), nil
}

// SuggestSkills proposes service categories the helper does not list yet.
func (s *RecommendationService) SuggestSkills(ctx context.Context, userID uint64) ([]string, error) {
	var helper *models.HelperProfile
	err := s.core.withRepos(ctx, "skill_suggestions", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		helper, err = findHelper(ctx, repos, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.recommender == nil || strings.TrimSpace(helper.AboutMe) == "" {
		return []string{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	skills, err := s.recommender.SuggestSkills(ctx, helper.AboutMe, helper.ServiceCategories)
	s.core.metrics.ObserveCollaborator("recommender", start, err)
	if err != nil {
		log.Printf("skill suggestion for helper %d failed: %v", userID, err)
		return []string{}, nil
	}

	known := make(map[string]struct{}, len(helper.ServiceCategories))
	for _, c := range helper.ServiceCategories {
		known[strings.ToLower(c)] = struct{}{}
	}
	suggestions := make([]string, 0, len(skills))
	for _, skill := range normalizeList(skills) {
		if _, ok := known[strings.ToLower(skill)]; ok {
			continue
		}
		suggestions = append(suggestions, skill)
		if len(suggestions) == constants.MaxSuggestedSkills {
			break
		}
	}
	return suggestions, nil
}

// rankByIDs orders candidates by ids, skipping unknown and repeated ids.
func rankByIDs(candidates []models.HelperProfile, ids []uint64, limit int) []models.HelperProfile {
	byID := make(map[uint64]models.HelperProfile, len(candidates))
	for _, h := range candidates {
		byID[h.UserID] = h
	}
	ranked := make([]models.HelperProfile, 0, len(ids))
	for _, id := range ids {
		h, ok := byID[id]
		if !ok {
			continue
		}
		delete(byID, id)
		ranked = append(ranked, h)
		if len(ranked) == limit {
			break
		}
	}
	return ranked
}
