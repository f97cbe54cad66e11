package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/repository"
	"github.com/taskey/taskey-api/internal/utils"
	"gorm.io/gorm"
)

const maxReferenceAttempts = 3

var (
	ErrTitleRequired      = apierrors.Validation("title is required")
	ErrCategoryRequired   = apierrors.Validation("category is required")
	ErrAreaRequired       = apierrors.Validation("area is required")
	ErrInvalidBudget      = apierrors.Validation("budget must satisfy 0 < budget_min <= budget_max")
	ErrInvalidEffort      = apierrors.Validation("effort must be one of light, medium, heavy")
	ErrInvalidTaskStatus  = apierrors.Validation("unknown task status")
	ErrDueInPast          = apierrors.Validation("due_at must be in the future")
	ErrTaskNotCancellable = apierrors.Precondition("task can no longer be cancelled")
)

// TaskService handles task business logic
type TaskService struct {
	core *Core
}

// NewTaskService creates a new TaskService
func NewTaskService(core *Core) *TaskService {
	return &TaskService{core: core}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	CustomerID    uint64
	Title         string
	Description   string
	Category      string
	Area          string
	ExactLocation string
	BudgetMin     int64
	BudgetMax     int64
	Effort        models.EffortTier
	RequiredTools []string
	DueAt         *time.Time
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID       uint64
	Status       *models.TaskStatus
	Category     string
	Area         string
	Mine         bool
	AssignedToMe bool
	Page         int
	PageSize     int
}

// CreateTask validates the input and stores an OPEN task with a fresh
// reference code.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, ErrCategoryRequired
	}
	area := strings.TrimSpace(input.Area)
	if area == "" {
		return nil, ErrAreaRequired
	}
	if input.BudgetMin <= 0 || input.BudgetMin > input.BudgetMax {
		return nil, ErrInvalidBudget
	}
	if input.Effort == "" {
		input.Effort = models.EffortMedium
	}
	if !input.Effort.Valid() {
		return nil, ErrInvalidEffort
	}
	if input.DueAt != nil && !input.DueAt.After(s.core.Now()) {
		return nil, ErrDueInPast
	}

	task := &models.Task{
		CustomerID:    input.CustomerID,
		Title:         title,
		Description:   input.Description,
		Category:      category,
		Area:          area,
		ExactLocation: strings.TrimSpace(input.ExactLocation),
		BudgetMin:     input.BudgetMin,
		BudgetMax:     input.BudgetMax,
		Effort:        input.Effort,
		RequiredTools: normalizeList(input.RequiredTools),
		DueAt:         input.DueAt,
		Status:        models.TaskStatusOpen,
	}

	for attempt := 1; ; attempt++ {
		ref, err := utils.GenerateTaskReference()
		if err != nil {
			return nil, fmt.Errorf("failed to generate task reference: %w", err)
		}
		task.Reference = ref

		err = s.core.withRepos(ctx, "create_task", func(ctx context.Context, repos repository.Repositories) error {
			return repos.Tasks.Create(ctx, task)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= maxReferenceAttempts {
			return nil, err
		}
		task.ID = 0
	}

	s.core.publishTask(task)
	return task, nil
}

// ListTasks returns tasks matching the filters. Without mine or
// assigned_to_me only open tasks are listed.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidTaskStatus
	}

	filter := repository.TaskFilter{
		Status:     input.Status,
		Category:   strings.TrimSpace(input.Category),
		Area:       strings.TrimSpace(input.Area),
		Pagination: utils.NewPaginationParams(input.Page, input.PageSize),
	}
	if input.Mine {
		filter.CustomerID = &input.UserID
	}
	if input.AssignedToMe {
		filter.AssignedHelperID = &input.UserID
	}
	if !input.Mine && !input.AssignedToMe {
		open := models.TaskStatusOpen
		filter.Status = &open
	}

	var (
		tasks []models.Task
		total int64
	)
	err := s.core.withRepos(ctx, "list_tasks", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		tasks, total, err = repos.Tasks.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// GetTask returns a task the viewer is allowed to see
func (s *TaskService) GetTask(ctx context.Context, taskID, viewerID uint64) (*models.Task, error) {
	var task *models.Task
	err := s.core.withRepos(ctx, "get_task", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		task, err = loadViewableTask(ctx, repos, taskID, viewerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CancelTask withdraws an OPEN or ASSIGNED task. Pending offers are rejected
// in the same transaction.
func (s *TaskService) CancelTask(ctx context.Context, taskID, customerID uint64) (*models.Task, error) {
	var (
		task *models.Task
		from models.TaskStatus
	)
	err := s.core.runTx(ctx, "cancel_task", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		task, err = loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if task.CustomerID != customerID {
			return ErrNotTaskOwner
		}
		if !task.Status.CanTransitionTo(models.TaskStatusCancelled) {
			return ErrTaskNotCancellable
		}

		now := s.core.Now()
		from = task.Status
		task.Status = models.TaskStatusCancelled
		task.CancelledAt = &now
		if err := repos.Tasks.UpdateVersioned(ctx, task); err != nil {
			return err
		}
		if _, err := repos.Offers.RejectSubmitted(ctx, task.ID, 0); err != nil {
			return fmt.Errorf("failed to reject pending offers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.core.transitioned(task, from)
	return task, nil
}

// normalizeList trims entries and drops empty and repeated ones.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
