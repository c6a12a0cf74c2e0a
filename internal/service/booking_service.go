package service

import (
	"context"
	"errors"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// NewBooking is the input for reserving an item.
type NewBooking struct {
	ItemID int64
	Start  time.Time
	End    time.Time
}

type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	sheetsWorker   domain.SyncWorker
	preventOverlap bool
	logger         *zerolog.Logger
	now            func() time.Time
}

// NewBookingService wires the booking lifecycle. eventBus and sheetsWorker
// may be nil. With preventOverlap set, a reservation overlapping an approved
// one on the same item is refused.
func NewBookingService(
	repo domain.Repository,
	eventBus domain.EventPublisher,
	sheetsWorker domain.SyncWorker,
	preventOverlap bool,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		sheetsWorker:   sheetsWorker,
		preventOverlap: preventOverlap,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateBooking reserves an item for bookerID. The booking starts WAITING.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID int64, in NewBooking) (*models.Booking, error) {
	var booking *models.Booking
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		item, err := tx.GetItemByID(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if _, err := tx.GetUserByID(ctx, bookerID); err != nil {
			return err
		}
		if !item.Available {
			return domain.Validation("item %d is not available for booking", item.ID)
		}
		if item.OwnerID == bookerID {
			return domain.Validation("owner cannot book their own item")
		}

		if s.preventOverlap {
			overlap, err := tx.HasApprovedOverlap(ctx, item.ID, in.Start, in.End)
			if err != nil {
				return err
			}
			if overlap {
				return domain.Conflict("item %d is already booked for the requested period", item.ID)
			}
		}

		booking = &models.Booking{
			ItemID:   item.ID,
			ItemName: item.Name,
			OwnerID:  item.OwnerID,
			BookerID: bookerID,
			Start:    in.Start,
			End:      in.End,
			Status:   models.StatusWaiting,
		}
		return tx.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("booking_id", booking.ID).Int64("item_id", booking.ItemID).Int64("booker_id", bookerID).Msg("booking created")
	metrics.IncBookingTransition(string(models.StatusWaiting))

	s.publishEvent(events.EventBookingCreated, booking, bookerID)
	s.enqueueSync(ctx, booking, models.SyncTaskUpsert)

	return booking, nil
}

// ChangeStatus approves or rejects a WAITING booking. Only the item owner
// may decide, and only once.
func (s *BookingService) ChangeStatus(ctx context.Context, callerID, bookingID int64, approved bool) (*models.Booking, error) {
	target := models.StatusRejected
	if approved {
		target = models.StatusApproved
	}

	var booking *models.Booking
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		var err error
		booking, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.OwnerID != callerID {
			return domain.Forbidden("only the item owner may approve or reject booking %d", bookingID)
		}
		if booking.Status != models.StatusWaiting {
			return domain.Validation("booking %d is already %s", bookingID, booking.Status)
		}

		err = tx.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, target)
		if errors.Is(err, database.ErrConcurrentModification) {
			return lostDecision(ctx, tx, bookingID)
		}
		if err != nil {
			return err
		}

		booking.Status = target
		booking.Version++
		booking.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("booking_id", bookingID).Str("status", string(target)).Msg("booking status changed")
	metrics.IncBookingTransition(string(target))

	eventType := events.EventBookingRejected
	if approved {
		eventType = events.EventBookingApproved
	}
	s.publishEvent(eventType, booking, callerID)
	s.enqueueSync(ctx, booking, models.SyncTaskStatus)

	return booking, nil
}

// lostDecision explains a failed versioned update. A rival that already
// decided the booking makes this a repeated decision; anything else is a
// plain conflict.
func lostDecision(ctx context.Context, tx domain.Repository, bookingID int64) error {
	current, err := tx.GetBooking(ctx, bookingID)
	if err == nil && current.Status != models.StatusWaiting {
		return domain.Validation("booking %d is already %s", bookingID, current.Status)
	}
	return domain.Conflict("booking %d was changed concurrently", bookingID)
}

// GetBooking is visible to the booker and the item owner only.
func (s *BookingService) GetBooking(ctx context.Context, callerID, bookingID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != callerID && booking.OwnerID != callerID {
		return nil, domain.Forbidden("booking %d is not visible to user %d", bookingID, callerID)
	}
	return booking, nil
}

// ListByBooker returns the caller's bookings matching state, newest start first.
func (s *BookingService) ListByBooker(ctx context.Context, bookerID int64, state string) ([]*models.Booking, error) {
	return s.list(ctx, bookerID, state, func(tx domain.Repository) func(context.Context, int64) ([]*models.Booking, error) {
		return tx.GetBookingsByBooker
	})
}

// ListByOwner returns bookings on the caller's items matching state, newest start first.
func (s *BookingService) ListByOwner(ctx context.Context, ownerID int64, state string) ([]*models.Booking, error) {
	return s.list(ctx, ownerID, state, func(tx domain.Repository) func(context.Context, int64) ([]*models.Booking, error) {
		return tx.GetBookingsByOwner
	})
}

func (s *BookingService) list(
	ctx context.Context,
	userID int64,
	rawState string,
	fetch func(tx domain.Repository) func(ctx context.Context, userID int64) ([]*models.Booking, error),
) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		if _, err := tx.GetUserByID(ctx, userID); err != nil {
			return err
		}

		state, err := models.ParseBookingState(rawState)
		if err != nil {
			return domain.Validation("%s", err.Error())
		}

		all, err := fetch(tx)(ctx, userID)
		if err != nil {
			return err
		}
		bookings = models.FilterBookings(all, state, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		ItemName:  booking.ItemName,
		OwnerID:   booking.OwnerID,
		BookerID:  booking.BookerID,
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
		ChangedBy: changedBy,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	var err error
	if taskType == models.SyncTaskStatus {
		err = s.sheetsWorker.EnqueueStatusUpdate(ctx, booking.ID, booking.Status)
	} else {
		err = s.sheetsWorker.EnqueueBookingUpsert(ctx, booking)
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
