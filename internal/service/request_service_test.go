package service

import (
	"context"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestService(t *testing.T) {
	ctx := context.Background()
	db := setupRepo(t)
	repo := newCountingRepo(db)
	svc := NewRequestService(repo, testLogger())

	asker := mustUser(t, db, "Asker", "asker@example.com")
	lender := mustUser(t, db, "Lender", "lender@example.com")

	_, err := svc.CreateRequest(ctx, asker.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateRequest(ctx, 999, "need a tent")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	svc.now = fixedClock()
	tent, err := svc.CreateRequest(ctx, asker.ID, "need a tent")
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow.Add(time.Hour) }
	ladder, err := svc.CreateRequest(ctx, asker.ID, "need a ladder")
	require.NoError(t, err)
	mine, err := svc.CreateRequest(ctx, lender.ID, "need a kayak")
	require.NoError(t, err)

	offered := &models.Item{Name: "Tent", Description: "two person", Available: true, OwnerID: lender.ID, RequestID: &tent.ID}
	require.NoError(t, db.CreateItem(ctx, offered))
	mustItem(t, db, lender.ID, "Unrelated", true)

	t.Run("list mine", func(t *testing.T) {
		views, err := svc.ListMine(ctx, asker.ID)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, ladder.ID, views[0].ID)
		assert.Empty(t, views[0].Items)
		assert.Equal(t, tent.ID, views[1].ID)
		require.Len(t, views[1].Items, 1)
		assert.Equal(t, offered.ID, views[1].Items[0].ID)
		assert.EqualValues(t, 1, repo.items.Load())
	})

	t.Run("list others", func(t *testing.T) {
		others, err := svc.ListOthers(ctx, lender.ID)
		require.NoError(t, err)
		require.Len(t, others, 2)
		for _, r := range others {
			assert.Equal(t, asker.ID, r.RequesterID)
		}

		others, err = svc.ListOthers(ctx, asker.ID)
		require.NoError(t, err)
		require.Len(t, others, 1)
		assert.Equal(t, mine.ID, others[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		view, err := svc.GetRequest(ctx, lender.ID, tent.ID)
		require.NoError(t, err)
		assert.Equal(t, "need a tent", view.Description)
		assert.Len(t, view.Items, 1)

		_, err = svc.GetRequest(ctx, 999, tent.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = svc.GetRequest(ctx, lender.ID, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list mine for unknown user", func(t *testing.T) {
		_, err := svc.ListMine(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
