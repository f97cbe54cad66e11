package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskey/taskey-api/internal/arrival"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/realtime"
)

func TestCheckIn_WindowBoundary(t *testing.T) {
	cases := []struct {
		name    string
		offset  time.Duration
		wantErr error
	}{
		{"at eta", 0, nil},
		{"29m59s after eta", 29*time.Minute + 59*time.Second, nil},
		{"exactly at window end", 30 * time.Minute, nil},
		{"30m01s after eta", 30*time.Minute + time.Second, ErrCheckInWindowExpired},
		{"one second before eta", -time.Second, ErrCheckInTooEarly},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			task, _, helperID, eta := f.assigned("")
			f.clock.Set(eta.Add(tc.offset))

			updated, err := f.arrival.CheckIn(f.ctx, task.ID, helperID)
			stored := f.reloadTask(task.ID)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, apierrors.ErrPrecondition)
				assert.Nil(t, stored.HelperCheckInTime)
				assert.Equal(t, task.Version, stored.Version)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, stored.HelperCheckInTime)
			assert.True(t, stored.HelperCheckInTime.Equal(eta.Add(tc.offset)))
			assert.Equal(t, models.TaskStatusAssigned, updated.Status)
		})
	}
}

func TestCheckIn_Authorization(t *testing.T) {
	f := newFixture(t)
	task, customerID, helperID, eta := f.assigned("")
	f.clock.Set(eta)

	_, err := f.arrival.CheckIn(f.ctx, task.ID, customerID)
	assert.ErrorIs(t, err, ErrNotAssignedHelper)

	require.NoError(t, f.db.Model(&models.HelperProfile{}).
		Where("user_id = ?", helperID).
		Update("verification_status", models.VerificationSuspended).Error)
	_, err = f.arrival.CheckIn(f.ctx, task.ID, helperID)
	assert.ErrorIs(t, err, ErrHelperSuspended)
}

func TestCheckIn_WithoutAcceptedOffer(t *testing.T) {
	f := newFixture(t)
	customerID := f.createUser()
	helperID := f.createHelper(models.VerificationApproved)
	task := f.createTask(customerID, "")

	_, err := f.arrival.CheckIn(f.ctx, task.ID, helperID)
	assert.ErrorIs(t, err, ErrNoAcceptedOffer)
}

func TestArrival_OnTimeCheckInAndConfirm(t *testing.T) {
	f := newFixture(t)
	task, customerID, helperID, eta := f.assigned("")

	f.clock.Set(eta)
	_, err := f.arrival.CheckIn(f.ctx, task.ID, helperID)
	require.NoError(t, err)

	_, err = f.arrival.CheckIn(f.ctx, task.ID, helperID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	snap, err := f.arrival.Status(f.ctx, task.ID, customerID)
	require.NoError(t, err)
	assert.Equal(t, arrival.StateCheckedInAwaitConfirm, snap.State)

	confirmAt := eta.Add(4 * time.Minute)
	f.clock.Set(confirmAt)
	_, err = f.arrival.ConfirmArrival(f.ctx, task.ID, helperID)
	assert.ErrorIs(t, err, ErrNotTaskOwner)

	confirmed, err := f.arrival.ConfirmArrival(f.ctx, task.ID, customerID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusActive, confirmed.Status)

	stored := f.reloadTask(task.ID)
	assert.Equal(t, models.TaskStatusActive, stored.Status)
	require.NotNil(t, stored.ArrivedAt)
	require.NotNil(t, stored.HelperCheckInTime)
	assert.True(t, stored.ArrivedAt.Equal(*stored.HelperCheckInTime))
	assert.True(t, stored.CheckinConfirmedAt.Equal(confirmAt))
	assert.True(t, stored.StartedAt.Equal(confirmAt))
	assert.Nil(t, stored.LateStartSeconds)
	assert.Equal(t, models.LateStartNone, stored.LateStartStatus)

	_, err = f.arrival.ConfirmArrival(f.ctx, task.ID, customerID)
	assert.ErrorIs(t, err, ErrArrivalConfirmed)
}

func TestArrival_LateStartFreezesLateness(t *testing.T) {
	f := newFixture(t)
	task, customerID, helperID, eta := f.assigned("")

	f.clock.Set(eta.Add(45 * time.Minute))
	requested, err := f.arrival.RequestLateStart(f.ctx, task.ID, helperID)
	require.NoError(t, err)
	require.NotNil(t, requested.LateStartSeconds)
	assert.Equal(t, int64(900), *requested.LateStartSeconds)
	assert.Equal(t, models.LateStartRequested, requested.LateStartStatus)

	_, err = f.arrival.RequestLateStart(f.ctx, task.ID, helperID)
	assert.ErrorIs(t, err, ErrLateStartPending)
	_, err = f.arrival.CheckIn(f.ctx, task.ID, helperID)
	assert.ErrorIs(t, err, ErrLateStartPending)

	confirmAt := eta.Add(60 * time.Minute)
	f.clock.Set(confirmAt)
	_, err = f.arrival.ConfirmArrival(f.ctx, task.ID, customerID)
	require.NoError(t, err)

	stored := f.reloadTask(task.ID)
	require.NotNil(t, stored.LateStartSeconds)
	assert.Equal(t, int64(900), *stored.LateStartSeconds)
	assert.Equal(t, models.LateStartApproved, stored.LateStartStatus)
	assert.True(t, stored.LateStartApprovedAt.Equal(confirmAt))
	assert.True(t, stored.HelperCheckInTime.Equal(confirmAt))
	assert.True(t, stored.ArrivedAt.Equal(confirmAt))
	assert.Equal(t, models.TaskStatusActive, stored.Status)
}

func TestArrival_MissedWindowScenario(t *testing.T) {
	f := newFixture(t)
	task, customerID, helperID, eta := f.assigned("")

	f.clock.Set(eta.Add(46 * time.Minute))
	requested, err := f.arrival.RequestLateStart(f.ctx, task.ID, helperID)
	require.NoError(t, err)
	assert.Equal(t, int64(960), *requested.LateStartSeconds)

	thread, err := f.threads.GetThread(f.ctx, task.ID, helperID)
	require.NoError(t, err)
	last := thread.Messages[len(thread.Messages)-1]
	assert.Equal(t, models.MessageKindSystem, last.Kind)
	assert.Contains(t, last.Body, "late start")
	assert.Equal(t, last.Body, thread.LastMessagePreview)

	confirmed, err := f.arrival.ConfirmArrival(f.ctx, task.ID, customerID)
	require.NoError(t, err)
	assert.Equal(t, models.LateStartApproved, confirmed.LateStartStatus)
	assert.Equal(t, models.TaskStatusActive, confirmed.Status)
}

func TestRequestLateStart_OnlyAfterWindow(t *testing.T) {
	f := newFixture(t)
	task, _, helperID, eta := f.assigned("")

	f.clock.Set(eta.Add(10 * time.Minute))
	_, err := f.arrival.RequestLateStart(f.ctx, task.ID, helperID)
	assert.ErrorIs(t, err, ErrLateStartNotAllowed)

	_, err = f.arrival.CheckIn(f.ctx, task.ID, helperID)
	require.NoError(t, err)
	f.clock.Set(eta.Add(40 * time.Minute))
	_, err = f.arrival.RequestLateStart(f.ctx, task.ID, helperID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestConfirmArrival_NothingToConfirm(t *testing.T) {
	f := newFixture(t)
	task, customerID, _, eta := f.assigned("")

	f.clock.Set(eta.Add(40 * time.Minute))
	_, err := f.arrival.ConfirmArrival(f.ctx, task.ID, customerID)
	assert.ErrorIs(t, err, ErrNothingToConfirm)
	assert.Equal(t, models.TaskStatusAssigned, f.reloadTask(task.ID).Status)
}

type failingMessenger struct {
	calls int
}

func (m *failingMessenger) PostSystemMessage(ctx context.Context, task *models.Task, body string) error {
	m.calls++
	return errors.New("messaging down")
}

func (m *failingMessenger) UpdatePreview(ctx context.Context, task *models.Task, preview string) error {
	m.calls++
	return errors.New("messaging down")
}

func TestRequestLateStart_MessagingFailureKeepsTransition(t *testing.T) {
	f := newFixture(t)
	task, _, helperID, eta := f.assigned("")
	messenger := &failingMessenger{}
	svc := NewArrivalService(f.core, messenger, 30*time.Minute, time.Second)

	f.clock.Set(eta.Add(45 * time.Minute))
	_, err := svc.RequestLateStart(f.ctx, task.ID, helperID)
	require.NoError(t, err)

	assert.Equal(t, 2, messenger.calls)
	stored := f.reloadTask(task.ID)
	assert.Equal(t, models.LateStartRequested, stored.LateStartStatus)
	assert.Equal(t, int64(900), *stored.LateStartSeconds)
}

func TestArrivalStatus_OnlyParties(t *testing.T) {
	f := newFixture(t)
	task, _, _, eta := f.assigned("")
	f.clock.Set(eta.Add(10 * time.Minute))

	_, err := f.arrival.Status(f.ctx, task.ID, f.createUser())
	assert.ErrorIs(t, err, ErrNotArrivalParty)

	snap, err := f.arrival.Status(f.ctx, task.ID, *task.AssignedHelperID)
	require.NoError(t, err)
	assert.Equal(t, arrival.StateWindowOpen, snap.State)
	assert.Equal(t, int64(20*60), snap.RemainingSeconds)
}

func TestWatchCountdown_StopsWhenConfirmed(t *testing.T) {
	f := newFixture(t)
	task, customerID, helperID, eta := f.assigned("")
	f.clock.Set(eta.Add(5 * time.Minute))

	var (
		mu    sync.Mutex
		last  arrival.Snapshot
		first = make(chan arrival.Snapshot, 1)
	)
	done := make(chan error, 1)
	go func() {
		done <- f.arrival.WatchCountdown(f.ctx, task.ID, customerID, func(s arrival.Snapshot) bool {
			mu.Lock()
			last = s
			mu.Unlock()
			select {
			case first <- s:
			default:
			}
			return true
		})
	}()

	initial := <-first
	assert.Equal(t, arrival.StateWindowOpen, initial.State)
	assert.Equal(t, int64(25*60), initial.RemainingSeconds)

	_, err := f.arrival.CheckIn(f.ctx, task.ID, helperID)
	require.NoError(t, err)
	_, err = f.arrival.ConfirmArrival(f.ctx, task.ID, customerID)
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not stop after confirmation")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, arrival.StateConfirmed, last.State)
}

func TestWatchCountdown_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	task, customerID, _, _ := f.assigned("")

	ctx, cancel := context.WithCancel(f.ctx)
	ticks := 0
	done := make(chan error, 1)
	go func() {
		done <- f.arrival.WatchCountdown(ctx, task.ID, customerID, func(s arrival.Snapshot) bool {
			ticks++
			if ticks == 3 {
				cancel()
			}
			return true
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not stop after cancel")
	}
	assert.Eventually(t, func() bool {
		return f.hub.Subscribers(realtime.TaskTopic(task.ID)) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestWatchCountdown_StopsWhenTaskCancelled(t *testing.T) {
	f := newFixture(t)
	task, customerID, helperID, eta := f.assigned("")
	f.clock.Set(eta.Add(5 * time.Minute))

	first := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- f.arrival.WatchCountdown(f.ctx, task.ID, helperID, func(s arrival.Snapshot) bool {
			select {
			case first <- struct{}{}:
			default:
			}
			return true
		})
	}()

	<-first
	_, err := f.tasks.CancelTask(f.ctx, task.ID, customerID)
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("countdown kept running after the task was cancelled")
	}
}
