package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CheckRateLimit(ctx context.Context, key int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverRateLimitStore(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	primary := new(mockStore)
	fallback := new(mockStore)
	store := NewFailoverRateLimitStore(primary, fallback, &logger)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	t.Run("PrimaryHealthy", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, int64(1), 5, time.Minute).Return(true, nil).Once()

		allowed, err := store.CheckRateLimit(ctx, 1, 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, store.Down())
	})

	t.Run("PrimaryFailsUsesFallback", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, int64(1), 5, time.Minute).Return(false, errors.New("redis down")).Once()
		fallback.On("CheckRateLimit", ctx, int64(1), 5, time.Minute).Return(true, nil).Twice()

		allowed, err := store.CheckRateLimit(ctx, 1, 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, store.Down())

		// within the recovery interval primary is not consulted
		allowed, err = store.CheckRateLimit(ctx, 1, 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("Recovery", func(t *testing.T) {
		clock = clock.Add(2 * time.Minute)
		primary.On("CheckRateLimit", ctx, int64(1), 5, time.Minute).Return(false, nil).Once()

		allowed, err := store.CheckRateLimit(ctx, 1, 5, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.False(t, store.Down())
	})

	primary.AssertExpectations(t)
	fallback.AssertExpectations(t)
}
