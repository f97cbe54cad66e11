package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskey/taskey-api/internal/checklist"
	"github.com/taskey/taskey-api/internal/constants"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotActive            = apierrors.Precondition("task is not in progress")
	ErrTaskNotCompleted         = apierrors.Precondition("task is not completed")
	ErrUnknownChecklistItem     = apierrors.Validation("item is not on the task checklist")
	ErrFeedbackAlreadySubmitted = apierrors.Precondition("feedback was already submitted for this task")
	ErrAlreadyReviewed          = apierrors.ConflictError("you have already reviewed this task")
	ErrInvalidRating            = apierrors.Validation(fmt.Sprintf("rating must be between %d and %d", constants.MinFeedbackRating, constants.MaxFeedbackRating))
)

// ChecklistIncompleteError lists the checklist items still open when a
// completion is attempted. It is carried as the cause of a precondition error.
type ChecklistIncompleteError struct {
	Missing []string
}

func (e *ChecklistIncompleteError) Error() string {
	return "missing items: " + strings.Join(e.Missing, ", ")
}

func checklistIncomplete(missing []string) error {
	return &apierrors.DomainError{
		Kind:    apierrors.KindPrecondition,
		Message: "checklist incomplete",
		Err:     &ChecklistIncompleteError{Missing: missing},
	}
}

// CompletionService gates task completion on the description checklist and
// handles the review or dispute that follows.
type CompletionService struct {
	core *Core
}

// NewCompletionService creates a new CompletionService
func NewCompletionService(core *Core) *CompletionService {
	return &CompletionService{core: core}
}

// ToggleChecklistItem marks an item done or not done. Repeating a toggle is a
// no-op.
func (s *CompletionService) ToggleChecklistItem(ctx context.Context, taskID, helperID uint64, item string, checked bool) (*models.Task, error) {
	item = strings.TrimSpace(item)

	var task *models.Task
	err := s.core.runTx(ctx, "toggle_checklist_item", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		task, err = loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if !task.IsAssignedTo(helperID) {
			return ErrNotAssignedHelper
		}
		if task.Status != models.TaskStatusActive {
			return ErrTaskNotActive
		}
		if !checklist.Contains(checklist.Parse(task.Description), item) {
			return ErrUnknownChecklistItem
		}
		task.CompletedItems = checklist.Toggle(task.CompletedItems, item, checked)
		return repos.Tasks.UpdateVersioned(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.core.publishTask(task)
	return task, nil
}

// MarkComplete finishes an active task once every checklist item is done.
// Coverage is checked against the row read inside the transaction.
func (s *CompletionService) MarkComplete(ctx context.Context, taskID, helperID uint64) (*models.Task, error) {
	var task *models.Task
	err := s.core.runTx(ctx, "mark_complete", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		task, err = loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if !task.IsAssignedTo(helperID) {
			return ErrNotAssignedHelper
		}
		if task.Status != models.TaskStatusActive {
			return ErrTaskNotActive
		}
		items := checklist.Parse(task.Description)
		if !checklist.Covered(items, task.CompletedItems) {
			return checklistIncomplete(checklist.Missing(items, task.CompletedItems))
		}

		now := s.core.Now()
		task.Status = models.TaskStatusCompleted
		task.CompletedAt = &now
		return repos.Tasks.UpdateVersioned(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.core.transitioned(task, models.TaskStatusActive)
	return task, nil
}

// DisputeCompletion lets the owner contest a completion they have not yet
// reviewed. Resolution happens outside this service.
func (s *CompletionService) DisputeCompletion(ctx context.Context, taskID, customerID uint64) (*models.Task, error) {
	var task *models.Task
	err := s.core.runTx(ctx, "dispute_completion", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		task, err = loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if task.CustomerID != customerID {
			return ErrNotTaskOwner
		}
		if task.Status != models.TaskStatusCompleted {
			return ErrTaskNotCompleted
		}
		reviewed, err := repos.Feedback.ExistsForTask(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to check feedback: %w", err)
		}
		if reviewed {
			return ErrFeedbackAlreadySubmitted
		}

		now := s.core.Now()
		task.Status = models.TaskStatusInDispute
		task.DisputedAt = &now
		return repos.Tasks.UpdateVersioned(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.core.transitioned(task, models.TaskStatusCompleted)
	return task, nil
}

// SubmitFeedbackInput represents a customer's review
type SubmitFeedbackInput struct {
	TaskID     uint64
	CustomerID uint64
	Rating     int
	Comment    string
}

// SubmitFeedback records the owner's single review of a completed task.
func (s *CompletionService) SubmitFeedback(ctx context.Context, input SubmitFeedbackInput) (*models.Feedback, error) {
	if input.Rating < constants.MinFeedbackRating || input.Rating > constants.MaxFeedbackRating {
		return nil, ErrInvalidRating
	}

	var feedback *models.Feedback
	err := s.core.runTx(ctx, "submit_feedback", func(ctx context.Context, repos repository.Repositories) error {
		task, err := loadTask(ctx, repos, input.TaskID)
		if err != nil {
			return err
		}
		if task.CustomerID != input.CustomerID {
			return ErrNotTaskOwner
		}

		if _, err := repos.Feedback.FindByTaskAndCustomer(ctx, task.ID, input.CustomerID); err == nil {
			return ErrAlreadyReviewed
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check feedback: %w", err)
		}
		if task.Status != models.TaskStatusCompleted {
			return ErrTaskNotCompleted
		}

		feedback = &models.Feedback{
			TaskID:     task.ID,
			CustomerID: input.CustomerID,
			HelperID:   *task.AssignedHelperID,
			Rating:     input.Rating,
			Comment:    strings.TrimSpace(input.Comment),
			CreatedAt:  s.core.Now(),
		}
		if err := repos.Feedback.Create(ctx, feedback); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyReviewed
			}
			return fmt.Errorf("failed to create feedback: %w", err)
		}

		// Serializes against a concurrent dispute on the same task.
		return repos.Tasks.UpdateVersioned(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	return feedback, nil
}
