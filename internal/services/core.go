package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/taskey/taskey-api/internal/constants"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/metrics"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/realtime"
	"github.com/taskey/taskey-api/internal/repository"
	"gorm.io/gorm"
)

// EventTaskUpdated is published on a task's topic after every committed change.
const EventTaskUpdated = "task_updated"

var (
	ErrTaskNotFound  = apierrors.NotFoundError("task not found")
	ErrOfferNotFound = apierrors.NotFoundError("offer not found")
	ErrNotTaskOwner  = apierrors.Authorization("only the task owner can perform this action")
	ErrTxConflict    = apierrors.ConflictError("task was changed by another party, reload and retry")
)

// Options configures the shared runtime of the lifecycle services.
type Options struct {
	StoreTimeout time.Duration
	MaxRetries   int
	Clock        func() time.Time
	Metrics      *metrics.Metrics
	Hub          *realtime.Hub
}

// Core carries what every lifecycle service needs: the store, the clock,
// the retry policy and the realtime hub.
type Core struct {
	store        repository.Store
	now          func() time.Time
	storeTimeout time.Duration
	maxRetries   int
	metrics      *metrics.Metrics
	hub          *realtime.Hub
}

// NewCore creates a Core, filling unset options with defaults.
func NewCore(store repository.Store, opts Options) *Core {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = constants.DefaultStoreTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = constants.DefaultTxMaxRetries
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &Core{
		store:        store,
		now:          opts.Clock,
		storeTimeout: opts.StoreTimeout,
		maxRetries:   opts.MaxRetries,
		metrics:      opts.Metrics,
		hub:          opts.Hub,
	}
}

// Now returns the current time according to the core's clock.
func (c *Core) Now() time.Time {
	return c.now()
}

// runTx runs fn as one read-decide-write transaction. A stale write restarts
// the whole transaction; once retries are exhausted the caller gets a conflict.
func (c *Core) runTx(ctx context.Context, op string, fn func(ctx context.Context, repos repository.Repositories) error) error {
	for attempt := 1; ; attempt++ {
		err := c.attemptTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrStaleWrite) {
			return c.storeError(op, err)
		}
		if attempt >= c.maxRetries {
			c.metrics.TxConflict(op, "exhausted")
			return ErrTxConflict
		}
		c.metrics.TxConflict(op, "retried")
	}
}

func (c *Core) attemptTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	return c.store.Transaction(ctx, func(repos repository.Repositories) error {
		return fn(ctx, repos)
	})
}

// withRepos runs fn against the root repositories under the store timeout.
func (c *Core) withRepos(ctx context.Context, op string, fn func(ctx context.Context, repos repository.Repositories) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	if err := fn(ctx, c.store.Repos()); err != nil {
		return c.storeError(op, err)
	}
	return nil
}

// storeError passes domain errors through and reports anything else as an
// unavailable store.
func (c *Core) storeError(op string, err error) error {
	var de *apierrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	return apierrors.Unavailable(fmt.Sprintf("%s failed", op), err)
}

func loadTask(ctx context.Context, repos repository.Repositories, taskID uint64) (*models.Task, error) {
	task, err := repos.Tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func loadOffer(ctx context.Context, repos repository.Repositories, taskID, offerID uint64) (*models.Offer, error) {
	offer, err := repos.Offers.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	if offer.TaskID != taskID {
		return nil, ErrOfferNotFound
	}
	return offer, nil
}

// loadViewableTask hides tasks the viewer may not see behind not-found.
func loadViewableTask(ctx context.Context, repos repository.Repositories, taskID, viewerID uint64) (*models.Task, error) {
	task, err := loadTask(ctx, repos, taskID)
	if err != nil {
		return nil, err
	}
	if !task.CanView(viewerID) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// transitioned records a committed status change and pushes the new snapshot.
func (c *Core) transitioned(task *models.Task, from models.TaskStatus) {
	if from != task.Status {
		c.metrics.TaskTransition(string(from), string(task.Status))
	}
	c.publishTask(task)
}

func (c *Core) publishTask(task *models.Task) {
	if c.hub == nil {
		return
	}
	snapshot := *task
	c.hub.Publish(realtime.Event{
		Topic:   realtime.TaskTopic(task.ID),
		Type:    EventTaskUpdated,
		Payload: snapshot,
		At:      c.now(),
	})
}

// sideEffect runs a best-effort follow-up of a committed transition. Failures
// are logged and counted but never returned.
func (c *Core) sideEffect(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.storeTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		c.metrics.SideEffectFailed(name)
		log.Printf("side effect %s failed: %v", name, err)
	}
}

// notify posts body into the task's thread and updates the thread preview as
// two independent side effects.
func (c *Core) notify(ctx context.Context, m Messenger, task *models.Task, body string) {
	if m == nil {
		return
	}
	c.sideEffect(ctx, "thread_message", func(ctx context.Context) error {
		return m.PostSystemMessage(ctx, task, body)
	})
	c.sideEffect(ctx, "thread_preview", func(ctx context.Context) error {
		return m.UpdatePreview(ctx, task, body)
	})
}
