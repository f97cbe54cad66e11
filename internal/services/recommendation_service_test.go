package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskey/taskey-api/internal/models"
)

type stubRecommender struct {
	ids    []uint64
	skills []string
	err    error
	delay  time.Duration
}

func (s *stubRecommender) wait(ctx context.Context) error {
	if s.delay == 0 {
		return nil
	}
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubRecommender) RankHelpers(ctx context.Context, task *models.Task, candidates []models.HelperProfile) ([]uint64, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.ids, s.err
}

func (s *stubRecommender) SuggestSkills(ctx context.Context, aboutMe string, current []string) ([]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.skills, s.err
}

func TestRecommendedHelpers_RanksEligibleHelpers(t *testing.T) {
	f := newFixture(t)
	customerID := f.createUser()
	first := f.createHelper(models.VerificationApproved)
	second := f.createHelper(models.VerificationApproved)
	f.createHelper(models.VerificationPending)
	task := f.createTask(customerID, "")

	svc := NewRecommendationService(f.core, &stubRecommender{ids: []uint64{second, 999, first, second}}, time.Second)
	helpers, err := svc.RecommendedHelpers(f.ctx, task.ID, customerID)
	require.NoError(t, err)
	require.Len(t, helpers, 2)
	assert.Equal(t, second, helpers[0].UserID)
	assert.Equal(t, first, helpers[1].UserID)

	_, err = svc.RecommendedHelpers(f.ctx, task.ID, first)
	assert.ErrorIs(t, err, ErrNotTaskOwner)
}

func TestRecommendedHelpers_DegradesToEmpty(t *testing.T) {
	f := newFixture(t)
	customerID := f.createUser()
	f.createHelper(models.VerificationApproved)
	task := f.createTask(customerID, "")

	cases := map[string]Recommender{
		"collaborator error": &stubRecommender{err: errors.New("rate limited")},
		"timeout":            &stubRecommender{delay: time.Second},
		"disabled":           nil,
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewRecommendationService(f.core, rec, 20*time.Millisecond)
			helpers, err := svc.RecommendedHelpers(f.ctx, task.ID, customerID)
			require.NoError(t, err)
			assert.NotNil(t, helpers)
			assert.Empty(t, helpers)
		})
	}
}

func TestSuggestSkills(t *testing.T) {
	f := newFixture(t)
	helperID := f.createHelper(models.VerificationApproved)

	svc := NewRecommendationService(f.core, &stubRecommender{skills: []string{"Furniture", "TV mounting", "tv mounting", " "}}, time.Second)
	skills, err := svc.SuggestSkills(f.ctx, helperID)
	require.NoError(t, err)
	assert.Equal(t, []string{"TV mounting"}, skills)

	failing := NewRecommendationService(f.core, &stubRecommender{err: errors.New("down")}, time.Second)
	skills, err = failing.SuggestSkills(f.ctx, helperID)
	require.NoError(t, err)
	assert.Empty(t, skills)

	_, err = svc.SuggestSkills(f.ctx, 404)
	assert.ErrorIs(t, err, ErrHelperNotFound)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "[1, 2]", stripCodeFence("```json\n[1, 2]\n```"))
	assert.Equal(t, "[]", stripCodeFence("  []  "))
}
