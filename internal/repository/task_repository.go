package repository

import (
	"context"

	"github.com/taskey/taskey-api/internal/database"
	"github.com/taskey/taskey-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.Version == 0 {
		task.Version = 1
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByIDForUpdate finds a task by ID with SELECT ... FOR UPDATE. SQLite
// has no row locks and serializes writers on its own.
func (r *GormTaskRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{})

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("tasks.category = ?", filter.Category)
	}
	if filter.Area != "" {
		query = query.Where("tasks.area = ?", filter.Area)
	}
	if filter.CustomerID != nil {
		query = query.Where("tasks.customer_id = ?", *filter.CustomerID)
	}
	if filter.AssignedHelperID != nil {
		query = query.Where("tasks.assigned_helper_id = ?", *filter.AssignedHelperID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at DESC").Order("tasks.id DESC")
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// UpdateVersioned saves every column of the task guarded by its version
func (r *GormTaskRepository) UpdateVersioned(ctx context.Context, task *models.Task) error {
	current := task.Version
	task.Version = current + 1

	result := r.db.WithContext(ctx).
		Model(task).
		Where("version = ?", current).
		Select("*").
		Omit("id", "created_at").
		Updates(task)
	if result.Error != nil {
		task.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		task.Version = current
		return ErrStaleWrite
	}
	return nil
}
