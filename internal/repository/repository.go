package repository

import (
	"context"
	"errors"
	"time"

	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/utils"
)

// ErrStaleWrite is returned by versioned updates when the row changed since it
// was read. Callers retry the whole transaction.
var ErrStaleWrite = errors.New("repository: stale write")

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// FindByIDForUpdate finds a task by ID and holds a row lock on it until
	// the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateVersioned writes every column of task if its version is unchanged
	// and bumps the version. Returns ErrStaleWrite otherwise.
	UpdateVersioned(ctx context.Context, task *models.Task) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status           *models.TaskStatus
	Category         string
	Area             string
	CustomerID       *uint64
	AssignedHelperID *uint64
	Pagination       utils.PaginationParams
}

// OfferRepository defines the interface for offer data access
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uint64) (*models.Offer, error)

	// ListByTask lists offers on a task, optionally only those of one helper
	ListByTask(ctx context.Context, taskID uint64, helperID *uint64) ([]models.Offer, error)

	// FindSubmittedByHelper finds the helper's pending offer on a task
	FindSubmittedByHelper(ctx context.Context, taskID, helperID uint64) (*models.Offer, error)

	UpdateVersioned(ctx context.Context, offer *models.Offer) error

	// RejectSubmitted moves every SUBMITTED offer on the task except keepID to REJECTED
	RejectSubmitted(ctx context.Context, taskID, keepID uint64) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error

	// CreateWithCustomerProfile creates a user and their customer profile
	// within a single transaction.
	CreateWithCustomerProfile(ctx context.Context, user *models.User, profile *models.CustomerProfile) error

	FindByID(ctx context.Context, id uint64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// CustomerRepository defines the interface for customer profile access
type CustomerRepository interface {
	FindByUserID(ctx context.Context, userID uint64) (*models.CustomerProfile, error)
}

// HelperRepository defines the interface for helper profile access
type HelperRepository interface {
	Create(ctx context.Context, helper *models.HelperProfile) error
	FindByUserID(ctx context.Context, userID uint64) (*models.HelperProfile, error)
	Update(ctx context.Context, helper *models.HelperProfile) error

	// ListEligible lists approved, available helpers serving the category
	ListEligible(ctx context.Context, category, area string, limit int) ([]models.HelperProfile, error)
}

// FeedbackRepository defines the interface for feedback access
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	FindByTaskAndCustomer(ctx context.Context, taskID, customerID uint64) (*models.Feedback, error)
	ExistsForTask(ctx context.Context, taskID uint64) (bool, error)
}

// ThreadRepository defines the interface for task thread access
type ThreadRepository interface {
	// FindOrCreate returns the thread with thread.Key, creating it if absent
	FindOrCreate(ctx context.Context, thread *models.TaskThread) (*models.TaskThread, error)
	FindByKey(ctx context.Context, key string, withMessages bool) (*models.TaskThread, error)
	AppendMessage(ctx context.Context, message *models.ChatMessage) error
	UpdatePreview(ctx context.Context, threadID uint64, preview string, kind models.MessageKind, at time.Time) error
}

// Repositories groups repositories bound to the same database handle, either
// the root connection or one transaction.
type Repositories struct {
	Users     UserRepository
	Customers CustomerRepository
	Helpers   HelperRepository
	Tasks     TaskRepository
	Offers    OfferRepository
	Feedback  FeedbackRepository
	Threads   ThreadRepository
}

// Store hands out repositories and runs multi-repository transactions.
type Store interface {
	Repos() Repositories
	Transaction(ctx context.Context, fn func(repos Repositories) error) error
}
