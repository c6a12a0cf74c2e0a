package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, requesterID int64, description string) (*models.ItemRequest, error) {
	if strings.TrimSpace(description) == "" {
		return nil, domain.Validation("request description must not be empty")
	}

	req := &models.ItemRequest{
		Description: description,
		RequesterID: requesterID,
		Created:     s.now().UTC(),
	}
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		if _, err := tx.GetUserByID(ctx, requesterID); err != nil {
			return err
		}
		return tx.CreateRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("request_id", req.ID).Int64("requester_id", requesterID).Msg("item request created")
	return req, nil
}

// ListMine returns the requester's own requests, newest first, with the
// items offered for each.
func (s *RequestService) ListMine(ctx context.Context, requesterID int64) ([]*models.RequestView, error) {
	var views []*models.RequestView
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		if _, err := tx.GetUserByID(ctx, requesterID); err != nil {
			return err
		}

		requests, err := tx.GetRequestsByRequester(ctx, requesterID)
		if err != nil {
			return err
		}
		views, err = projectRequests(ctx, tx, requests)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// ListOthers returns everyone else's requests, newest first, without items.
func (s *RequestService) ListOthers(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	return s.repo.GetRequestsExcept(ctx, requesterID)
}

func (s *RequestService) GetRequest(ctx context.Context, callerID, requestID int64) (*models.RequestView, error) {
	var view *models.RequestView
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		if _, err := tx.GetUserByID(ctx, callerID); err != nil {
			return err
		}

		req, err := tx.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}

		views, err := projectRequests(ctx, tx, []*models.ItemRequest{req})
		if err != nil {
			return err
		}
		view = views[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
