package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/repository"
	"gorm.io/gorm"
)

const maxPreviewLength = 120

var (
	ErrThreadNotFound = apierrors.NotFoundError("thread not found")
	ErrNoThreadYet    = apierrors.Precondition("task has no assigned helper to talk to")
)

// Messenger posts into the conversation between a task's customer and its
// assigned helper. Each call either fully succeeds or fully fails.
type Messenger interface {
	PostSystemMessage(ctx context.Context, task *models.Task, body string) error
	UpdatePreview(ctx context.Context, task *models.Task, preview string) error
}

// ThreadService implements Messenger on top of the task_threads table.
type ThreadService struct {
	core *Core
}

// NewThreadService creates a new ThreadService
func NewThreadService(core *Core) *ThreadService {
	return &ThreadService{core: core}
}

// ThreadKey identifies the thread of one customer/helper pairing on a task.
func ThreadKey(taskID, customerID, helperID uint64) string {
	return fmt.Sprintf("%d_%d_%d", taskID, customerID, helperID)
}

func threadFor(task *models.Task) (*models.TaskThread, error) {
	if task.AssignedHelperID == nil {
		return nil, ErrNoThreadYet
	}
	return &models.TaskThread{
		Key:        ThreadKey(task.ID, task.CustomerID, *task.AssignedHelperID),
		TaskID:     task.ID,
		CustomerID: task.CustomerID,
		HelperID:   *task.AssignedHelperID,
	}, nil
}

// PostSystemMessage appends a system message to the task's thread, creating
// the thread on first use.
func (s *ThreadService) PostSystemMessage(ctx context.Context, task *models.Task, body string) error {
	want, err := threadFor(task)
	if err != nil {
		return err
	}
	return s.core.store.Transaction(ctx, func(repos repository.Repositories) error {
		thread, err := repos.Threads.FindOrCreate(ctx, want)
		if err != nil {
			return fmt.Errorf("failed to open thread: %w", err)
		}
		msg := &models.ChatMessage{
			ThreadID:  thread.ID,
			Kind:      models.MessageKindSystem,
			Body:      body,
			CreatedAt: s.core.Now(),
		}
		if err := repos.Threads.AppendMessage(ctx, msg); err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
		return nil
	})
}

// UpdatePreview sets the thread's last-message metadata.
func (s *ThreadService) UpdatePreview(ctx context.Context, task *models.Task, preview string) error {
	want, err := threadFor(task)
	if err != nil {
		return err
	}
	return s.core.store.Transaction(ctx, func(repos repository.Repositories) error {
		thread, err := repos.Threads.FindOrCreate(ctx, want)
		if err != nil {
			return fmt.Errorf("failed to open thread: %w", err)
		}
		return repos.Threads.UpdatePreview(ctx, thread.ID, truncate(preview, maxPreviewLength), models.MessageKindSystem, s.core.Now())
	})
}

// GetThread returns the thread of a task with its messages, oldest first.
// Only the owner and the assigned helper may read it.
func (s *ThreadService) GetThread(ctx context.Context, taskID, viewerID uint64) (*models.TaskThread, error) {
	var thread *models.TaskThread
	err := s.core.withRepos(ctx, "get_thread", func(ctx context.Context, repos repository.Repositories) error {
		task, err := loadViewableTask(ctx, repos, taskID, viewerID)
		if err != nil {
			return err
		}
		if task.CustomerID != viewerID && !task.IsAssignedTo(viewerID) {
			return ErrThreadNotFound
		}
		want, err := threadFor(task)
		if err != nil {
			return err
		}
		thread, err = repos.Threads.FindByKey(ctx, want.Key, true)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing posted yet.
			thread = want
			thread.Messages = []models.ChatMessage{}
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return thread, nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
