package services

import (
	"context"
	"fmt"
	"time"

	"github.com/taskey/taskey-api/internal/arrival"
	"github.com/taskey/taskey-api/internal/constants"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/realtime"
	"github.com/taskey/taskey-api/internal/repository"
)

var (
	ErrNoAcceptedOffer      = apierrors.Precondition("task has no accepted offer")
	ErrNotAssignedHelper    = apierrors.Authorization("only the assigned helper can perform this action")
	ErrNotArrivalParty      = apierrors.Authorization("only the task owner and the assigned helper can follow the arrival")
	ErrArrivalNotPending    = apierrors.Precondition("task is not awaiting arrival")
	ErrCheckInTooEarly      = apierrors.Precondition("check-in window has not opened yet")
	ErrCheckInWindowExpired = apierrors.Precondition("check-in window has expired, request a late start instead")
	ErrAlreadyCheckedIn     = apierrors.Precondition("helper has already checked in")
	ErrLateStartPending     = apierrors.Precondition("a late start is already awaiting approval")
	ErrLateStartNotAllowed  = apierrors.Precondition("late start can only be requested after the check-in window expires")
	ErrNothingToConfirm     = apierrors.Precondition("helper has neither checked in nor requested a late start")
	ErrArrivalConfirmed     = apierrors.Precondition("arrival is already confirmed")
	ErrAccessRevoked        = apierrors.Authorization("access to this task was revoked")
)

// ArrivalService runs the check-in handshake around the accepted offer's ETA.
type ArrivalService struct {
	core      *Core
	messenger Messenger
	window    time.Duration
	tick      time.Duration
}

// NewArrivalService creates a new ArrivalService
func NewArrivalService(core *Core, messenger Messenger, window, tick time.Duration) *ArrivalService {
	if window <= 0 {
		window = constants.DefaultCheckInWindow
	}
	if tick <= 0 {
		tick = constants.DefaultCountdownTick
	}
	return &ArrivalService{
		core:      core,
		messenger: messenger,
		window:    window,
		tick:      tick,
	}
}

// loadArrival reads the task and the ETA of its accepted offer.
func loadArrival(ctx context.Context, repos repository.Repositories, taskID uint64) (*models.Task, time.Time, error) {
	task, err := loadTask(ctx, repos, taskID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if task.AcceptedOfferID == nil {
		return nil, time.Time{}, ErrNoAcceptedOffer
	}
	offer, err := loadOffer(ctx, repos, taskID, *task.AcceptedOfferID)
	if err != nil {
		return nil, time.Time{}, err
	}
	return task, offer.EtaAt, nil
}

func isArrivalParty(task *models.Task, userID uint64) bool {
	return task.CustomerID == userID || task.IsAssignedTo(userID)
}

// Status returns the arrival snapshot of a task as seen now.
func (s *ArrivalService) Status(ctx context.Context, taskID, viewerID uint64) (arrival.Snapshot, error) {
	var snap arrival.Snapshot
	err := s.core.withRepos(ctx, "arrival_status", func(ctx context.Context, repos repository.Repositories) error {
		task, eta, err := loadArrival(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if !isArrivalParty(task, viewerID) {
			return ErrNotArrivalParty
		}
		snap = arrival.Evaluate(task, eta, s.core.Now(), s.window)
		return nil
	})
	return snap, err
}

// CheckIn records the helper's arrival. Legal only while the window is open;
// the window is re-checked against the stored ETA, not the client countdown.
func (s *ArrivalService) CheckIn(ctx context.Context, taskID, helperID uint64) (*models.Task, error) {
	var task *models.Task
	err := s.core.runTx(ctx, "check_in", func(ctx context.Context, repos repository.Repositories) error {
		var (
			eta time.Time
			err error
		)
		task, eta, err = loadArrival(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if !task.IsAssignedTo(helperID) {
			return ErrNotAssignedHelper
		}
		if err := requireActiveHelper(ctx, repos, helperID); err != nil {
			return err
		}
		if task.Status != models.TaskStatusAssigned {
			return ErrArrivalNotPending
		}

		now := s.core.Now()
		switch arrival.Derive(task, eta, now, s.window) {
		case arrival.StateWindowOpen:
		case arrival.StateAwaitingETA:
			return ErrCheckInTooEarly
		case arrival.StateWindowExpired:
			return ErrCheckInWindowExpired
		case arrival.StateLateRequested:
			return ErrLateStartPending
		case arrival.StateCheckedInAwaitConfirm:
			return ErrAlreadyCheckedIn
		default:
			return ErrArrivalConfirmed
		}

		task.HelperCheckInTime = &now
		return repos.Tasks.UpdateVersioned(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.core.publishTask(task)
	s.core.notify(ctx, s.messenger, task, "Helper checked in and is waiting for confirmation.")
	return task, nil
}

// RequestLateStart asks the customer to accept a helper who missed the
// window. The lateness at request time is frozen on the task.
func (s *ArrivalService) RequestLateStart(ctx context.Context, taskID, helperID uint64) (*models.Task, error) {
	var task *models.Task
	err := s.core.runTx(ctx, "request_late_start", func(ctx context.Context, repos repository.Repositories) error {
		var (
			eta time.Time
			err error
		)
		task, eta, err = loadArrival(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if !task.IsAssignedTo(helperID) {
			return ErrNotAssignedHelper
		}
		if task.Status != models.TaskStatusAssigned {
			return ErrArrivalNotPending
		}

		now := s.core.Now()
		switch arrival.Derive(task, eta, now, s.window) {
		case arrival.StateWindowExpired:
		case arrival.StateLateRequested:
			return ErrLateStartPending
		case arrival.StateCheckedInAwaitConfirm:
			return ErrAlreadyCheckedIn
		case arrival.StateConfirmed:
			return ErrArrivalConfirmed
		default:
			return ErrLateStartNotAllowed
		}

		lateSeconds := arrival.LateSeconds(arrival.WindowEnd(eta, s.window), now)
		task.LateStartStatus = models.LateStartRequested
		task.LateStartRequestedAt = &now
		task.LateStartSeconds = &lateSeconds
		return repos.Tasks.UpdateVersioned(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.core.publishTask(task)
	s.core.notify(ctx, s.messenger, task, fmt.Sprintf(
		"Helper missed the check-in window by %s and requested a late start.",
		time.Duration(*task.LateStartSeconds)*time.Second))
	return task, nil
}

// ConfirmArrival is the customer's acknowledgement that the helper is on
// site. It starts the task.
func (s *ArrivalService) ConfirmArrival(ctx context.Context, taskID, customerID uint64) (*models.Task, error) {
	var task *models.Task
	err := s.core.runTx(ctx, "confirm_arrival", func(ctx context.Context, repos repository.Repositories) error {
		var (
			eta time.Time
			err error
		)
		task, eta, err = loadArrival(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if task.CustomerID != customerID {
			return ErrNotTaskOwner
		}
		if task.Status != models.TaskStatusAssigned {
			if task.CheckinConfirmedAt != nil {
				return ErrArrivalConfirmed
			}
			return ErrArrivalNotPending
		}

		now := s.core.Now()
		state := arrival.Derive(task, eta, now, s.window)
		if state != arrival.StateCheckedInAwaitConfirm && state != arrival.StateLateRequested {
			return ErrNothingToConfirm
		}

		task.Status = models.TaskStatusActive
		task.CheckinConfirmedAt = &now
		task.StartedAt = &now
		if task.HelperCheckInTime != nil {
			arrived := *task.HelperCheckInTime
			task.ArrivedAt = &arrived
		} else {
			checkIn, arrived := now, now
			task.HelperCheckInTime = &checkIn
			task.ArrivedAt = &arrived
			if task.LateStartSeconds == nil {
				lateSeconds := arrival.LateSeconds(arrival.WindowEnd(eta, s.window), now)
				task.LateStartSeconds = &lateSeconds
			}
		}
		if task.LateStartStatus == models.LateStartRequested {
			task.LateStartStatus = models.LateStartApproved
			task.LateStartApprovedAt = &now
		}
		return repos.Tasks.UpdateVersioned(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.core.transitioned(task, models.TaskStatusAssigned)
	s.core.notify(ctx, s.messenger, task, "Arrival confirmed. The task has started.")
	return task, nil
}

// WatchCountdown emits an arrival snapshot immediately and then once per
// tick until ctx is done, emit returns false or the task leaves ASSIGNED.
// Committed task changes are picked up from the realtime hub between ticks.
func (s *ArrivalService) WatchCountdown(ctx context.Context, taskID, viewerID uint64, emit func(arrival.Snapshot) bool) error {
	var (
		task *models.Task
		eta  time.Time
	)
	err := s.core.withRepos(ctx, "arrival_countdown", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		task, eta, err = loadArrival(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if !isArrivalParty(task, viewerID) {
			return ErrNotArrivalParty
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var updates <-chan realtime.Event
	if hub := s.core.hub; hub != nil {
		var unsubscribe func()
		updates, unsubscribe = hub.Subscribe(ctx, realtime.TaskTopic(taskID))
		defer unsubscribe()
	}

	var watchErr error
	arrival.Tick(ctx, s.tick, s.core.now, func(now time.Time) bool {
		if latest, ok := drainLatestTask(updates); ok {
			task = &latest
			if !isArrivalParty(task, viewerID) {
				watchErr = ErrAccessRevoked
				return false
			}
		}
		snap := arrival.Evaluate(task, eta, now, s.window)
		if !emit(snap) {
			return false
		}
		// Confirmation moves the task on to ACTIVE; cancellation ends the
		// handshake without one.
		return snap.State != arrival.StateConfirmed && task.Status == models.TaskStatusAssigned
	})
	return watchErr
}

// drainLatestTask returns the newest task snapshot pending on ch, if any.
func drainLatestTask(ch <-chan realtime.Event) (models.Task, bool) {
	var (
		latest models.Task
		found  bool
	)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return latest, found
			}
			if t, isTask := ev.Payload.(models.Task); isTask {
				latest, found = t, true
			}
		default:
			return latest, found
		}
	}
}
