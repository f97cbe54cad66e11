package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskey/taskey-api/internal/journey"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/realtime"
	"github.com/taskey/taskey-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	t          *testing.T
	ctx        context.Context
	db         *gorm.DB
	clock      *fakeClock
	hub        *realtime.Hub
	core       *Core
	threads    *ThreadService
	tasks      *TaskService
	offers     *OfferService
	arrival    *ArrivalService
	completion *CompletionService
	helpers    *HelperService
	users      int
}

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

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	clock := &fakeClock{now: baseTime}
	hub := realtime.NewHub(8, nil)
	core := NewCore(repository.NewStore(db), Options{Clock: clock.Now, Hub: hub})
	threads := NewThreadService(core)

	return &fixture{
		t:          t,
		ctx:        context.Background(),
		db:         db,
		clock:      clock,
		hub:        hub,
		core:       core,
		threads:    threads,
		tasks:      NewTaskService(core),
		offers:     NewOfferService(core, threads),
		arrival:    NewArrivalService(core, threads, 30*time.Minute, 10*time.Millisecond),
		completion: NewCompletionService(core),
		helpers:    NewHelperService(core, journey.DefaultThresholds()),
	}
}

func (f *fixture) createUser() uint64 {
	f.t.Helper()
	f.users++
	user := &models.User{
		Username:     fmt.Sprintf("user%d", f.users),
		PasswordHash: "x",
	}
	require.NoError(f.t, f.db.Create(user).Error)
	return user.ID
}

func (f *fixture) createHelper(status models.VerificationStatus) uint64 {
	f.t.Helper()
	userID := f.createUser()
	helper := &models.HelperProfile{
		UserID:             userID,
		FullName:           "Aigerim",
		ProfilePhotoURL:    "https://cdn.example.com/a.png",
		ServiceCategories:  []string{"furniture"},
		ServiceAreas:       []string{"Almaty"},
		AboutMe:            "Ten years of furniture assembly",
		IsAvailable:        true,
		VerificationStatus: status,
		Stats:              models.HelperStats{ReliabilityLevel: models.ReliabilityGreen},
	}
	helper.RefreshProfileCompletion()
	require.NoError(f.t, f.db.Create(helper).Error)
	return userID
}

func (f *fixture) createTask(customerID uint64, description string) *models.Task {
	f.t.Helper()
	task, err := f.tasks.CreateTask(f.ctx, CreateTaskInput{
		CustomerID:    customerID,
		Title:         "Assemble wardrobe",
		Description:   description,
		Category:      "furniture",
		Area:          "Almaty",
		ExactLocation: "Abay ave 10, apt 5",
		BudgetMin:     20000,
		BudgetMax:     30000,
		Effort:        models.EffortMedium,
	})
	require.NoError(f.t, err)
	return task
}

func (f *fixture) submitOffer(taskID, helperID uint64, price int64, eta time.Time) *models.Offer {
	f.t.Helper()
	offer, err := f.offers.SubmitOffer(f.ctx, SubmitOfferInput{
		TaskID:   taskID,
		HelperID: helperID,
		Price:    price,
		EtaAt:    eta,
		Message:  "Available and experienced",
	})
	require.NoError(f.t, err)
	return offer
}

// assigned returns a task assigned to a fresh helper whose offer promises to
// arrive one hour from baseTime.
func (f *fixture) assigned(description string) (task *models.Task, customerID, helperID uint64, eta time.Time) {
	f.t.Helper()
	customerID = f.createUser()
	helperID = f.createHelper(models.VerificationApproved)
	task = f.createTask(customerID, description)
	eta = baseTime.Add(time.Hour)
	offer := f.submitOffer(task.ID, helperID, 25000, eta)

	task, _, err := f.offers.AcceptOffer(f.ctx, task.ID, offer.ID, customerID)
	require.NoError(f.t, err)
	return task, customerID, helperID, eta
}

// active returns an ACTIVE task whose helper checked in at the ETA.
func (f *fixture) active(description string) (task *models.Task, customerID, helperID uint64) {
	f.t.Helper()
	task, customerID, helperID, eta := f.assigned(description)
	f.clock.Set(eta)
	_, err := f.arrival.CheckIn(f.ctx, task.ID, helperID)
	require.NoError(f.t, err)
	task, err = f.arrival.ConfirmArrival(f.ctx, task.ID, customerID)
	require.NoError(f.t, err)
	return task, customerID, helperID
}

func (f *fixture) reloadTask(id uint64) *models.Task {
	f.t.Helper()
	var task models.Task
	require.NoError(f.t, f.db.First(&task, id).Error)
	return &task
}

func (f *fixture) reloadOffer(id uint64) *models.Offer {
	f.t.Helper()
	var offer models.Offer
	require.NoError(f.t, f.db.First(&offer, id).Error)
	return &offer
}

// writeLog records the order of versioned writes made through a recordingStore.
type writeLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *writeLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *writeLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.entries
	l.entries = nil
	return out
}

type recordingStore struct {
	repository.Store
	log *writeLog
}

func (s recordingStore) wrap(repos repository.Repositories) repository.Repositories {
	repos.Tasks = recordingTasks{TaskRepository: repos.Tasks, log: s.log}
	repos.Offers = recordingOffers{OfferRepository: repos.Offers, log: s.log}
	return repos
}

func (s recordingStore) Repos() repository.Repositories {
	return s.wrap(s.Store.Repos())
}

func (s recordingStore) Transaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	return s.Store.Transaction(ctx, func(repos repository.Repositories) error {
		return fn(s.wrap(repos))
	})
}

type recordingTasks struct {
	repository.TaskRepository
	log *writeLog
}

func (r recordingTasks) UpdateVersioned(ctx context.Context, task *models.Task) error {
	r.log.add("task")
	return r.TaskRepository.UpdateVersioned(ctx, task)
}

type recordingOffers struct {
	repository.OfferRepository
	log *writeLog
}

func (r recordingOffers) UpdateVersioned(ctx context.Context, offer *models.Offer) error {
	r.log.add("offer")
	return r.OfferRepository.UpdateVersioned(ctx, offer)
}

func (r recordingOffers) RejectSubmitted(ctx context.Context, taskID, keepID uint64) (int64, error) {
	r.log.add("reject_siblings")
	return r.OfferRepository.RejectSubmitted(ctx, taskID, keepID)
}

// recordingCore returns a core over the fixture database that logs the order
// of versioned writes.
func (f *fixture) recordingCore() (*Core, *writeLog) {
	log := &writeLog{}
	store := recordingStore{Store: repository.NewStore(f.db), log: log}
	return NewCore(store, Options{Clock: f.clock.Now, Hub: f.hub}), log
}
