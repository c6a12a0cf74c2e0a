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

func TestItemService_CreateItem(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	svc := NewItemService(repo, testLogger())
	owner := mustUser(t, repo, "Owner", "owner@example.com")

	tests := []struct {
		name string
		in   models.NewItem
	}{
		{"blank name", models.NewItem{Name: " ", Description: "drill", Available: boolPtr(true)}},
		{"blank description", models.NewItem{Name: "Drill", Description: "", Available: boolPtr(true)}},
		{"availability unset", models.NewItem{Name: "Drill", Description: "drill"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(ctx, owner.ID, tt.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	t.Run("unknown owner", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, 999, models.NewItem{Name: "Drill", Description: "drill", Available: boolPtr(true)})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("dangling request link is dropped", func(t *testing.T) {
		item, err := svc.CreateItem(ctx, owner.ID, models.NewItem{
			Name: "Drill", Description: "drill", Available: boolPtr(false), RequestID: int64Ptr(42),
		})
		require.NoError(t, err)
		assert.Nil(t, item.RequestID)
		assert.False(t, item.Available)
	})

	t.Run("request link kept", func(t *testing.T) {
		asker := mustUser(t, repo, "Asker", "asker@example.com")
		req := &models.ItemRequest{Description: "need a ladder", RequesterID: asker.ID}
		require.NoError(t, repo.CreateRequest(ctx, req))

		item, err := svc.CreateItem(ctx, owner.ID, models.NewItem{
			Name: "Ladder", Description: "ladder", Available: boolPtr(true), RequestID: &req.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, item.RequestID)
		assert.Equal(t, req.ID, *item.RequestID)
	})
}

func TestItemService_UpdateItem(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	svc := NewItemService(repo, testLogger())
	owner := mustUser(t, repo, "Owner", "owner@example.com")
	other := mustUser(t, repo, "Other", "other@example.com")
	item := mustItem(t, repo, owner.ID, "Drill", true)

	updated, err := svc.UpdateItem(ctx, owner.ID, item.ID, models.ItemPatch{Available: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Available)
	assert.Equal(t, "Drill", updated.Name)
	assert.Equal(t, item.Description, updated.Description)

	_, err = svc.UpdateItem(ctx, other.ID, item.ID, models.ItemPatch{Name: strPtr("Mine")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.UpdateItem(ctx, owner.ID, 999, models.ItemPatch{Name: strPtr("Ghost")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateItem(ctx, owner.ID, item.ID, models.ItemPatch{Name: strPtr("")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// lookup and ownership are checked before the patch itself
	_, err = svc.UpdateItem(ctx, owner.ID, 999, models.ItemPatch{Name: strPtr(" ")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.UpdateItem(ctx, other.ID, item.ID, models.ItemPatch{Description: strPtr("")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	stored, err := repo.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", stored.Name)
	assert.False(t, stored.Available)
}

func TestItemService_GetItem(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	svc := NewItemService(repo, testLogger())
	svc.now = fixedClock()

	owner := mustUser(t, repo, "Owner", "owner@example.com")
	booker := mustUser(t, repo, "Booker", "booker@example.com")
	item := mustItem(t, repo, owner.ID, "Drill", true)

	past := mustBooking(t, repo, item.ID, booker.ID, testNow.Add(-72*time.Hour), testNow.Add(-48*time.Hour), models.StatusApproved)
	future := mustBooking(t, repo, item.ID, booker.ID, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour), models.StatusWaiting)
	require.NoError(t, repo.CreateComment(ctx, &models.Comment{
		Text: "works well", ItemID: item.ID, AuthorID: booker.ID, Created: testNow.Add(-time.Hour),
	}))

	view, err := svc.GetItem(ctx, owner.ID, item.ID)
	require.NoError(t, err)
	require.NotNil(t, view.LastBooking)
	require.NotNil(t, view.NextBooking)
	assert.Equal(t, past.ID, view.LastBooking.ID)
	assert.Equal(t, future.ID, view.NextBooking.ID)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "Booker", view.Comments[0].AuthorName)

	view, err = svc.GetItem(ctx, booker.ID, item.ID)
	require.NoError(t, err)
	assert.Nil(t, view.LastBooking)
	assert.Nil(t, view.NextBooking)
	assert.Len(t, view.Comments, 1)

	_, err = svc.GetItem(ctx, owner.ID, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemService_ListByOwner(t *testing.T) {
	ctx := context.Background()
	db := setupRepo(t)
	repo := newCountingRepo(db)
	svc := NewItemService(repo, testLogger())
	svc.now = fixedClock()

	owner := mustUser(t, db, "Owner", "owner@example.com")
	booker := mustUser(t, db, "Booker", "booker@example.com")
	drill := mustItem(t, db, owner.ID, "Drill", true)
	mustItem(t, db, owner.ID, "Saw", true)

	views, err := svc.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Nil(t, v.LastBooking)
		assert.Nil(t, v.NextBooking)
		assert.NotNil(t, v.Comments)
	}
	assert.EqualValues(t, 1, repo.comments.Load())
	assert.EqualValues(t, 1, repo.bookings.Load())

	current := mustBooking(t, db, drill.ID, booker.ID, testNow.Add(-time.Hour), testNow.Add(time.Hour), models.StatusApproved)
	views, err = svc.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	for _, v := range views {
		// an ongoing booking is neither last nor next
		assert.Nil(t, v.LastBooking, "item %d", v.ID)
		assert.Nil(t, v.NextBooking, "item %d", v.ID)
	}
	assert.NotZero(t, current.ID)

	_, err = svc.ListByOwner(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemService_Search(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	svc := NewItemService(repo, testLogger())
	owner := mustUser(t, repo, "Owner", "owner@example.com")

	mustItem(t, repo, owner.ID, "Power Drill", true)
	mustItem(t, repo, owner.ID, "Old drill", false)

	items, err := svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = svc.Search(ctx, "DRILL")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Power Drill", items[0].Name)

	mustItem(t, repo, owner.ID, "Палатка", true)
	items, err = svc.Search(ctx, "ПАЛАТ")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Палатка", items[0].Name)
}
