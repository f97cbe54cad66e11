package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createTask(t *testing.T, repos Repositories, customerID uint64, ref string) *models.Task {
	t.Helper()
	task := &models.Task{
		Reference:   ref,
		CustomerID:  customerID,
		Title:       "Assemble wardrobe",
		Description: "- Unpack\n- Assemble",
		Category:    "furniture",
		Area:        "Almaty",
		BudgetMin:   20000,
		BudgetMax:   30000,
		Effort:      models.EffortMedium,
		Status:      models.TaskStatusOpen,
	}
	require.NoError(t, repos.Tasks.Create(context.Background(), task))
	return task
}

func TestTaskRepository_UpdateVersioned(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(newTestDB(t)).Repos()
	task := createTask(t, repos, 1, "TK-0000-0001")
	assert.Equal(t, uint64(1), task.Version)

	first, err := repos.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	second, err := repos.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)

	first.Status = models.TaskStatusCancelled
	require.NoError(t, repos.Tasks.UpdateVersioned(ctx, first))
	assert.Equal(t, uint64(2), first.Version)

	second.Status = models.TaskStatusAssigned
	err = repos.Tasks.UpdateVersioned(ctx, second)
	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.Equal(t, uint64(1), second.Version)

	stored, err := repos.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCancelled, stored.Status)
	assert.Equal(t, uint64(2), stored.Version)
}

func TestTaskRepository_UpdateVersionedClearsFields(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(newTestDB(t)).Repos()
	task := createTask(t, repos, 1, "TK-0000-0002")

	task.CompletedItems = []string{"Unpack"}
	require.NoError(t, repos.Tasks.UpdateVersioned(ctx, task))

	task.CompletedItems = []string{}
	require.NoError(t, repos.Tasks.UpdateVersioned(ctx, task))

	stored, err := repos.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CompletedItems)
}

func TestTaskRepository_List(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(newTestDB(t)).Repos()
	createTask(t, repos, 1, "TK-0000-0003")
	createTask(t, repos, 1, "TK-0000-0004")
	createTask(t, repos, 2, "TK-0000-0005")

	customerID := uint64(1)
	tasks, total, err := repos.Tasks.List(ctx, TaskFilter{
		CustomerID: &customerID,
		Pagination: utils.NewPaginationParams(1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, tasks, 1)

	open := models.TaskStatusOpen
	_, total, err = repos.Tasks.List(ctx, TaskFilter{Status: &open, Category: "furniture", Area: "Almaty"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestOfferRepository_RejectSubmitted(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(newTestDB(t)).Repos()
	task := createTask(t, repos, 1, "TK-0000-0006")

	offers := make([]*models.Offer, 0, 3)
	for helperID := uint64(10); helperID < 13; helperID++ {
		offer := &models.Offer{
			TaskID:   task.ID,
			HelperID: helperID,
			Price:    25000,
			EtaAt:    time.Now().Add(time.Hour),
			Message:  "Available and experienced",
			Status:   models.OfferStatusSubmitted,
		}
		require.NoError(t, repos.Offers.Create(ctx, offer))
		offers = append(offers, offer)
	}
	offers[2].Status = models.OfferStatusWithdrawn
	require.NoError(t, repos.Offers.UpdateVersioned(ctx, offers[2]))

	rejected, err := repos.Offers.RejectSubmitted(ctx, task.ID, offers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rejected)

	stored, err := repos.Offers.ListByTask(ctx, task.ID, nil)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, models.OfferStatusSubmitted, stored[0].Status)
	assert.Equal(t, models.OfferStatusRejected, stored[1].Status)
	assert.Equal(t, models.OfferStatusWithdrawn, stored[2].Status)

	stale := *offers[1]
	stale.Status = models.OfferStatusWithdrawn
	assert.ErrorIs(t, repos.Offers.UpdateVersioned(ctx, &stale), ErrStaleWrite)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))
	task := createTask(t, store.Repos(), 1, "TK-0000-0007")

	err := store.Transaction(ctx, func(repos Repositories) error {
		loaded, err := repos.Tasks.FindByID(ctx, task.ID)
		if err != nil {
			return err
		}
		loaded.Status = models.TaskStatusCancelled
		if err := repos.Tasks.UpdateVersioned(ctx, loaded); err != nil {
			return err
		}
		return ErrStaleWrite
	})
	assert.ErrorIs(t, err, ErrStaleWrite)

	stored, err := store.Repos().Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusOpen, stored.Status)
	assert.Equal(t, uint64(1), stored.Version)
}

func TestFeedbackRepository_UniquePerTaskAndCustomer(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(newTestDB(t)).Repos()

	require.NoError(t, repos.Feedback.Create(ctx, &models.Feedback{TaskID: 1, CustomerID: 2, HelperID: 3, Rating: 5}))
	err := repos.Feedback.Create(ctx, &models.Feedback{TaskID: 1, CustomerID: 2, HelperID: 3, Rating: 4})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	exists, err := repos.Feedback.ExistsForTask(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestThreadRepository_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(newTestDB(t)).Repos()

	first, err := repos.Threads.FindOrCreate(ctx, &models.TaskThread{Key: "1_2_3", TaskID: 1, CustomerID: 2, HelperID: 3})
	require.NoError(t, err)
	second, err := repos.Threads.FindOrCreate(ctx, &models.TaskThread{Key: "1_2_3", TaskID: 1, CustomerID: 2, HelperID: 3})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, repos.Threads.AppendMessage(ctx, &models.ChatMessage{
		ThreadID: first.ID,
		Kind:     models.MessageKindSystem,
		Body:     "Helper requested a late start",
	}))
	now := time.Now().UTC()
	require.NoError(t, repos.Threads.UpdatePreview(ctx, first.ID, "Helper requested a late start", models.MessageKindSystem, now))

	thread, err := repos.Threads.FindByKey(ctx, "1_2_3", true)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	assert.NotEmpty(t, thread.Messages[0].ID)
	assert.Equal(t, "Helper requested a late start", thread.LastMessagePreview)
}

func TestHelperRepository_ListEligible(t *testing.T) {
	ctx := context.Background()
	repos := NewStore(newTestDB(t)).Repos()

	helpers := []models.HelperProfile{
		{UserID: 1, ServiceCategories: []string{"Cleaning"}, ServiceAreas: []string{"Almaty"}, IsAvailable: true, VerificationStatus: models.VerificationApproved},
		{UserID: 2, ServiceCategories: []string{"cleaning"}, ServiceAreas: []string{"Astana"}, IsAvailable: true, VerificationStatus: models.VerificationApproved},
		{UserID: 3, ServiceCategories: []string{"cleaning"}, ServiceAreas: []string{"Almaty"}, IsAvailable: false, VerificationStatus: models.VerificationApproved},
		{UserID: 4, ServiceCategories: []string{"cleaning"}, ServiceAreas: []string{"Almaty"}, IsAvailable: true, VerificationStatus: models.VerificationPending},
	}
	for i := range helpers {
		require.NoError(t, repos.Helpers.Create(ctx, &helpers[i]))
	}

	eligible, err := repos.Helpers.ListEligible(ctx, "cleaning", "almaty", 10)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, uint64(1), eligible[0].UserID)
}

func TestHelperRepository_UpdateKeepsExternallyOwnedFields(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repos := NewStore(db).Repos()

	require.NoError(t, repos.Helpers.Create(ctx, &models.HelperProfile{
		UserID:             1,
		AboutMe:            "Assembly",
		IsAvailable:        true,
		VerificationStatus: models.VerificationApproved,
		Stats:              models.HelperStats{ReliabilityLevel: models.ReliabilityGreen},
	}))

	stale, err := repos.Helpers.FindByUserID(ctx, 1)
	require.NoError(t, err)

	// Verification and settlement commit after the profile was read.
	require.NoError(t, db.Model(&models.HelperProfile{}).
		Where("user_id = ?", 1).
		Updates(map[string]interface{}{
			"verification_status":  models.VerificationSuspended,
			"stats_jobs_completed": 7,
		}).Error)

	stale.AboutMe = "Assembly and repairs"
	stale.IsAvailable = false
	stale.RefreshProfileCompletion()
	require.NoError(t, repos.Helpers.Update(ctx, stale))

	stored, err := repos.Helpers.FindByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Assembly and repairs", stored.AboutMe)
	assert.False(t, stored.IsAvailable)
	assert.Equal(t, 25, stored.ProfileCompletion.Percent)
	assert.Equal(t, models.VerificationSuspended, stored.VerificationStatus)
	assert.Equal(t, 7, stored.Stats.JobsCompleted)
}
