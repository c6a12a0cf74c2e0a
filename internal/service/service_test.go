package service

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func setupRepo(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustUser(t *testing.T, repo domain.Repository, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func mustItem(t *testing.T, repo domain.Repository, ownerID int64, name string, available bool) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Description: name + " for rent", Available: available, OwnerID: ownerID}
	require.NoError(t, repo.CreateItem(context.Background(), item))
	return item
}

func mustBooking(t *testing.T, repo domain.Repository, itemID, bookerID int64, start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{ItemID: itemID, BookerID: bookerID, Start: start, End: end, Status: status}
	require.NoError(t, repo.CreateBooking(context.Background(), b))
	return b
}

func boolPtr(v bool) *bool { return &v }
func strPtr(v string) *string { return &v }
func int64Ptr(v int64) *int64 { return &v }
func fixedClock() func() time.Time { return func() time.Time { return testNow } }

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueBookingUpsert(ctx context.Context, booking *models.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *mockSyncWorker) EnqueueStatusUpdate(ctx context.Context, bookingID int64, status models.BookingStatus) error {
	return m.Called(ctx, bookingID, status).Error(0)
}

type lookupCounts struct {
	comments atomic.Int32
	bookings atomic.Int32
	items    atomic.Int32
}

// countingRepo records how many batched lookups a read issues. Transactions
// opened through it share the same counters.
type countingRepo struct {
	domain.Repository
	*lookupCounts
}

func newCountingRepo(repo domain.Repository) *countingRepo {
	return &countingRepo{Repository: repo, lookupCounts: &lookupCounts{}}
}

func (r *countingRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repository) error) error {
	return r.Repository.InTx(ctx, func(ctx context.Context, tx domain.Repository) error {
		return fn(ctx, &countingRepo{Repository: tx, lookupCounts: r.lookupCounts})
	})
}

func (r *countingRepo) GetCommentsByItemIDs(ctx context.Context, ids []int64) ([]*models.Comment, error) {
	r.comments.Add(1)
	return r.Repository.GetCommentsByItemIDs(ctx, ids)
}

func (r *countingRepo) GetBookingsByItemIDs(ctx context.Context, ids []int64) ([]*models.Booking, error) {
	r.bookings.Add(1)
	return r.Repository.GetBookingsByItemIDs(ctx, ids)
}

func (r *countingRepo) GetItemsByRequestIDs(ctx context.Context, ids []int64) ([]*models.Item, error) {
	r.items.Add(1)
	return r.Repository.GetItemsByRequestIDs(ctx, ids)
}
