package service

import (
	"context"
	"errors"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return domain.Validation("email must not be empty")
	}
	if !strings.Contains(email, "@") {
		return domain.Validation("email %s is malformed", email)
	}
	return nil
}

// CreateUser registers a user. The email must be unique across users.
func (s *UserService) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email}
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		if err := ensureEmailFree(ctx, tx, email, 0); err != nil {
			return err
		}
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

// UpdateUser applies a partial update. A changed email is revalidated.
func (s *UserService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	var user *models.User
	err := s.repo.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		var err error
		user, err = tx.GetUserByID(ctx, id)
		if err != nil {
			return err
		}

		if patch.Email != nil && *patch.Email != user.Email {
			if err := validateEmail(*patch.Email); err != nil {
				return err
			}
			if err := ensureEmailFree(ctx, tx, *patch.Email, id); err != nil {
				return err
			}
			user.Email = *patch.Email
		}
		if patch.Name != nil {
			user.Name = *patch.Name
		}

		return tx.UpdateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

// DeleteUser removes the user. Removing an unknown id is not an error.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// ensureEmailFree fails with a conflict when a user other than selfID owns email.
func ensureEmailFree(ctx context.Context, repo domain.Repository, email string, selfID int64) error {
	other, err := repo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != selfID:
		return domain.Conflict("email %s is already in use", email)
	}
	return nil
}
