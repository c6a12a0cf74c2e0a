package service

import (
	"context"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCommentService_AddComment(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	bus := new(mockPublisher)
	svc := NewCommentService(repo, bus, testLogger())
	svc.now = fixedClock()

	owner := mustUser(t, repo, "Owner", "owner@example.com")
	renter := mustUser(t, repo, "Renter", "renter@example.com")
	early := mustUser(t, repo, "Early", "early@example.com")
	item := mustItem(t, repo, owner.ID, "Drill", true)

	// finished rental, rejected: status is not part of the rule
	mustBooking(t, repo, item.ID, renter.ID, testNow.Add(-48*time.Hour), testNow.Add(-24*time.Hour), models.StatusRejected)
	// still running
	mustBooking(t, repo, item.ID, early.ID, testNow.Add(-time.Hour), testNow.Add(time.Hour), models.StatusApproved)

	t.Run("blank text", func(t *testing.T) {
		_, err := svc.AddComment(ctx, renter.ID, item.ID, "  ")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := svc.AddComment(ctx, 999, item.ID, "great")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := svc.AddComment(ctx, renter.ID, 999, "great")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("rental not finished", func(t *testing.T) {
		_, err := svc.AddComment(ctx, early.ID, item.ID, "great")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("owner never rented", func(t *testing.T) {
		_, err := svc.AddComment(ctx, owner.ID, item.ID, "great")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("finished rental", func(t *testing.T) {
		bus.On("PublishJSON", events.EventCommentAdded, mock.MatchedBy(func(p events.CommentEventPayload) bool {
			return p.AuthorName == "Renter" && p.ItemID == item.ID
		})).Return(nil).Once()

		comment, err := svc.AddComment(ctx, renter.ID, item.ID, "great")
		require.NoError(t, err)
		assert.Equal(t, "Renter", comment.AuthorName)
		assert.True(t, comment.Created.Equal(testNow))

		comments, err := repo.GetCommentsByItemIDs(ctx, []int64{item.ID})
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "great", comments[0].Text)
		bus.AssertExpectations(t)
	})
}
