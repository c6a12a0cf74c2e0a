package database

import (
	"context"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingsCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	owner := mustUser(t, db, "owner")
	booker := mustUser(t, db, "booker")
	item := mustItem(t, db, owner, "Drill", true)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	b := mustBooking(t, db, item, booker, start, start.Add(2*time.Hour))
	assert.Equal(t, int64(1), b.Version)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ItemID)
	assert.Equal(t, "Drill", got.ItemName)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, booker.ID, got.BookerID)
	assert.Equal(t, models.StatusWaiting, got.Status)
	assert.True(t, start.Equal(got.Start))

	_, err = db.GetBooking(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	owner := mustUser(t, db, "owner")
	booker := mustUser(t, db, "booker")
	item := mustItem(t, db, owner, "Drill", true)
	b := mustBooking(t, db, item, booker, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusApproved))

	err := db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusRejected)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestBookingListsOrderedByStartDesc(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	owner := mustUser(t, db, "owner")
	booker := mustUser(t, db, "booker")
	other := mustUser(t, db, "other")
	drill := mustItem(t, db, owner, "Drill", true)
	saw := mustItem(t, db, owner, "Saw", true)

	now := time.Now()
	past := mustBooking(t, db, drill, booker, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	future := mustBooking(t, db, saw, booker, now.Add(24*time.Hour), now.Add(48*time.Hour))
	current := mustBooking(t, db, drill, other, now.Add(-time.Hour), now.Add(time.Hour))

	byBooker, err := db.GetBookingsByBooker(ctx, booker.ID)
	require.NoError(t, err)
	require.Len(t, byBooker, 2)
	assert.Equal(t, future.ID, byBooker[0].ID)
	assert.Equal(t, past.ID, byBooker[1].ID)

	byOwner, err := db.GetBookingsByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, byOwner, 3)
	assert.Equal(t, []int64{future.ID, current.ID, past.ID}, []int64{byOwner[0].ID, byOwner[1].ID, byOwner[2].ID})

	byItems, err := db.GetBookingsByItemIDs(ctx, []int64{drill.ID})
	require.NoError(t, err)
	require.Len(t, byItems, 2)
	assert.Equal(t, past.ID, byItems[0].ID)

	none, err := db.GetBookingsByOwner(ctx, booker.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHasFinishedBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	owner := mustUser(t, db, "owner")
	booker := mustUser(t, db, "booker")
	item := mustItem(t, db, owner, "Drill", true)
	now := time.Now()

	ok, err := db.HasFinishedBooking(ctx, booker.ID, item.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	mustBooking(t, db, item, booker, now.Add(-time.Hour), now.Add(time.Hour))
	ok, err = db.HasFinishedBooking(ctx, booker.ID, item.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "ongoing booking does not count")

	mustBooking(t, db, item, booker, now.Add(-2*time.Hour), now.Add(-time.Hour))
	ok, err = db.HasFinishedBooking(ctx, booker.ID, item.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasApprovedOverlap(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	owner := mustUser(t, db, "owner")
	booker := mustUser(t, db, "booker")
	item := mustItem(t, db, owner, "Drill", true)
	base := time.Now().Add(24 * time.Hour)

	b := mustBooking(t, db, item, booker, base, base.Add(2*time.Hour))

	overlap, err := db.HasApprovedOverlap(ctx, item.ID, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, overlap, "waiting bookings do not block")

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, models.StatusApproved))

	overlap, err = db.HasApprovedOverlap(ctx, item.ID, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, overlap)

	overlap, err = db.HasApprovedOverlap(ctx, item.ID, base.Add(2*time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, overlap, "touching ranges do not overlap")
}
