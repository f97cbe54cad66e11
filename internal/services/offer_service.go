package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskey/taskey-api/internal/constants"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidPrice          = apierrors.Validation("price must be greater than zero")
	ErrMessageTooShort       = apierrors.Validation(fmt.Sprintf("message must be at least %d characters", constants.MinOfferMessageLength))
	ErrEtaRequired           = apierrors.Validation("eta_at is required")
	ErrEtaInPast             = apierrors.Validation("eta_at must be in the future")
	ErrTaskNotOpenForOffers  = apierrors.Validation("task is not open for offers")
	ErrOwnTask               = apierrors.Authorization("cannot make an offer on your own task")
	ErrHelperProfileRequired = apierrors.Authorization("a helper profile is required")
	ErrHelperSuspended       = apierrors.Authorization("helper account is suspended")
	ErrOfferAlreadySubmitted = apierrors.Precondition("you already have a pending offer on this task")
	ErrTaskAlreadyAssigned   = apierrors.ConflictError("task is already assigned")
	ErrTaskNotOpen           = apierrors.Precondition("task is not open")
	ErrOfferNotSubmitted     = apierrors.Precondition("offer is no longer pending")
	ErrNotOfferOwner         = apierrors.Authorization("only the helper who made the offer can withdraw it")
)

// OfferService handles the offer lifecycle
type OfferService struct {
	core      *Core
	messenger Messenger
}

// NewOfferService creates a new OfferService
func NewOfferService(core *Core, messenger Messenger) *OfferService {
	return &OfferService{
		core:      core,
		messenger: messenger,
	}
}

// SubmitOfferInput represents a helper's bid
type SubmitOfferInput struct {
	TaskID   uint64
	HelperID uint64
	Price    int64
	EtaAt    time.Time
	Message  string
}

// SubmitOffer creates a SUBMITTED offer on an open task.
func (s *OfferService) SubmitOffer(ctx context.Context, input SubmitOfferInput) (*models.Offer, error) {
	message := strings.TrimSpace(input.Message)
	if input.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if utf8.RuneCountInString(message) < constants.MinOfferMessageLength {
		return nil, ErrMessageTooShort
	}
	if input.EtaAt.IsZero() {
		return nil, ErrEtaRequired
	}

	var offer *models.Offer
	err := s.core.runTx(ctx, "submit_offer", func(ctx context.Context, repos repository.Repositories) error {
		now := s.core.Now()
		if !input.EtaAt.After(now) {
			return ErrEtaInPast
		}

		// Locks the task row so an accept or cancel cannot commit between
		// the status check and the insert. The version is left alone, so
		// bids from different helpers do not invalidate each other.
		task, err := repos.Tasks.FindByIDForUpdate(ctx, input.TaskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to find task: %w", err)
		}
		if task.Status != models.TaskStatusOpen {
			return ErrTaskNotOpenForOffers
		}
		if task.CustomerID == input.HelperID {
			return ErrOwnTask
		}
		if err := requireActiveHelper(ctx, repos, input.HelperID); err != nil {
			return err
		}

		if _, err := repos.Offers.FindSubmittedByHelper(ctx, task.ID, input.HelperID); err == nil {
			return ErrOfferAlreadySubmitted
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check pending offers: %w", err)
		}

		offer = &models.Offer{
			TaskID:   task.ID,
			HelperID: input.HelperID,
			Price:    input.Price,
			EtaAt:    input.EtaAt.UTC(),
			Message:  message,
			Status:   models.OfferStatusSubmitted,
		}
		if err := repos.Offers.Create(ctx, offer); err != nil {
			return fmt.Errorf("failed to create offer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.core.metrics.OfferEvent("submitted")
	return offer, nil
}

// AcceptOffer assigns the task to the offer's helper. The offer, its siblings
// and the task are written in one transaction.
func (s *OfferService) AcceptOffer(ctx context.Context, taskID, offerID, customerID uint64) (*models.Task, *models.Offer, error) {
	var (
		task  *models.Task
		offer *models.Offer
	)
	err := s.core.runTx(ctx, "accept_offer", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		task, err = loadTask(ctx, repos, taskID)
		if err != nil {
			return err
		}
		if task.CustomerID != customerID {
			return ErrNotTaskOwner
		}
		switch task.Status {
		case models.TaskStatusOpen:
		case models.TaskStatusAssigned:
			return ErrTaskAlreadyAssigned
		default:
			return ErrTaskNotOpen
		}

		offer, err = loadOffer(ctx, repos, taskID, offerID)
		if err != nil {
			return err
		}
		if offer.Status != models.OfferStatusSubmitted {
			return ErrOfferNotSubmitted
		}

		// The task row is written first so that concurrent accepts queue on
		// it and the loser sees a stale version before touching any offer.
		now := s.core.Now()
		helperID, acceptedID, price := offer.HelperID, offer.ID, offer.Price
		task.Status = models.TaskStatusAssigned
		task.AssignedHelperID = &helperID
		task.AcceptedOfferID = &acceptedID
		task.AcceptedOfferPrice = &price
		task.AssignedAt = &now
		if err := repos.Tasks.UpdateVersioned(ctx, task); err != nil {
			return err
		}

		offer.Status = models.OfferStatusAccepted
		if err := repos.Offers.UpdateVersioned(ctx, offer); err != nil {
			return err
		}
		if _, err := repos.Offers.RejectSubmitted(ctx, taskID, offer.ID); err != nil {
			return fmt.Errorf("failed to reject sibling offers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.core.metrics.OfferEvent("accepted")
	s.core.transitioned(task, models.TaskStatusOpen)
	s.core.notify(ctx, s.messenger, task,
		fmt.Sprintf("Offer accepted. Helper arrives at %s.", offer.EtaAt.UTC().Format(time.RFC3339)))
	return task, offer, nil
}

// WithdrawOffer lets a helper retract their own pending offer.
func (s *OfferService) WithdrawOffer(ctx context.Context, taskID, offerID, helperID uint64) (*models.Offer, error) {
	var offer *models.Offer
	err := s.core.runTx(ctx, "withdraw_offer", func(ctx context.Context, repos repository.Repositories) error {
		var err error
		offer, err = loadOffer(ctx, repos, taskID, offerID)
		if err != nil {
			return err
		}
		if offer.HelperID != helperID {
			return ErrNotOfferOwner
		}
		if offer.Status != models.OfferStatusSubmitted {
			return ErrOfferNotSubmitted
		}
		offer.Status = models.OfferStatusWithdrawn
		return repos.Offers.UpdateVersioned(ctx, offer)
	})
	if err != nil {
		return nil, err
	}

	s.core.metrics.OfferEvent("withdrawn")
	return offer, nil
}

// ListOffers returns the offers on a task. The owner sees every offer, a
// helper only their own.
func (s *OfferService) ListOffers(ctx context.Context, taskID, viewerID uint64) ([]models.Offer, error) {
	var offers []models.Offer
	err := s.core.withRepos(ctx, "list_offers", func(ctx context.Context, repos repository.Repositories) error {
		task, err := loadViewableTask(ctx, repos, taskID, viewerID)
		if err != nil {
			return err
		}
		var helperID *uint64
		if task.CustomerID != viewerID {
			helperID = &viewerID
		}
		offers, err = repos.Offers.ListByTask(ctx, taskID, helperID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// requireActiveHelper checks the user has a helper profile that is not suspended.
func requireActiveHelper(ctx context.Context, repos repository.Repositories, userID uint64) error {
	helper, err := repos.Helpers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHelperProfileRequired
		}
		return fmt.Errorf("failed to find helper profile: %w", err)
	}
	if helper.VerificationStatus == models.VerificationSuspended {
		return ErrHelperSuspended
	}
	return nil
}
