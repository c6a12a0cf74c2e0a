package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type CommentService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewCommentService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *CommentService {
	return &CommentService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// AddComment leaves a comment on an item. Only users with a booking of the
// item that already ended may comment; the booking status is not checked.
func (s *CommentService) AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.Validation("comment text must not be empty")
	}

	now := s.now().UTC()
	var comment *models.Comment
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		author, err := tx.GetUserByID(ctx, authorID)
		if err != nil {
			return err
		}
		if _, err := tx.GetItemByID(ctx, itemID); err != nil {
			return err
		}

		rented, err := tx.HasFinishedBooking(ctx, authorID, itemID, now)
		if err != nil {
			return err
		}
		if !rented {
			return domain.Validation("user %d has never rented item %d", authorID, itemID)
		}

		comment = &models.Comment{
			Text:       text,
			ItemID:     itemID,
			AuthorID:   authorID,
			AuthorName: author.Name,
			Created:    now,
		}
		return tx.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("comment_id", comment.ID).Int64("item_id", itemID).Msg("comment added")
	metrics.IncComment()

	if s.eventBus != nil {
		payload := events.CommentEventPayload{
			CommentID:  comment.ID,
			ItemID:     comment.ItemID,
			AuthorID:   comment.AuthorID,
			AuthorName: comment.AuthorName,
			Text:       comment.Text,
		}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Str("event_type", events.EventCommentAdded).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}

	return comment, nil
}
