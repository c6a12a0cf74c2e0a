package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewItemService(repo domain.Repository, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// CreateItem lists a new item for ownerID. A request link pointing at an
// unknown request is dropped rather than rejected.
func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, in models.NewItem) (*models.Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validation("item name must not be empty")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, domain.Validation("item description must not be empty")
	}
	if in.Available == nil {
		return nil, domain.Validation("item availability must be set")
	}

	item := &models.Item{
		Name:        in.Name,
		Description: in.Description,
		Available:   *in.Available,
		OwnerID:     ownerID,
	}
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		if _, err := tx.GetUserByID(ctx, ownerID); err != nil {
			return err
		}

		if in.RequestID != nil {
			_, err := tx.GetRequestByID(ctx, *in.RequestID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				s.logger.Debug().Int64("request_id", *in.RequestID).Msg("item references unknown request, link dropped")
			case err != nil:
				return err
			default:
				item.RequestID = in.RequestID
			}
		}

		return tx.CreateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem applies a partial update. Only the owner may change an item.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	var item *models.Item
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		var err error
		item, err = tx.GetItemByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID {
			return domain.Forbidden("only the owner may update item %d", itemID)
		}
		if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
			return domain.Validation("item name must not be empty")
		}
		if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
			return domain.Validation("item description must not be empty")
		}

		patch.Apply(item)
		return tx.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns the item with its comments. The owner also sees the last
// and next bookings.
func (s *ItemService) GetItem(ctx context.Context, callerID, itemID int64) (*models.ItemView, error) {
	var view *models.ItemView
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		item, err := tx.GetItemByID(ctx, itemID)
		if err != nil {
			return err
		}

		views, err := projectItems(ctx, tx, []*models.Item{item}, item.OwnerID == callerID, s.now())
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

// ListByOwner returns every item of ownerID with the owner view.
func (s *ItemService) ListByOwner(ctx context.Context, ownerID int64) ([]*models.ItemView, error) {
	var views []*models.ItemView
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		if _, err := tx.GetUserByID(ctx, ownerID); err != nil {
			return err
		}

		items, err := tx.GetItemsByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		views, err = projectItems(ctx, tx, items, true, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// Search matches available items whose name or description contains text,
// ignoring case. Blank text matches nothing.
func (s *ItemService) Search(ctx context.Context, text string) ([]*models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchAvailableItems(ctx, text)
}
