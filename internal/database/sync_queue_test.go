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

func pendingIDs(t *testing.T, db *DB) []int64 {
	t.Helper()
	tasks, err := db.GetPendingSyncTasks(context.Background(), 10)
	require.NoError(t, err)
	ids := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestSyncQueue_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	upsert := &models.SyncTask{TaskType: models.SyncTaskUpsert, BookingID: 100, Payload: `{"booking_id":100}`}
	require.NoError(t, db.CreateSyncTask(ctx, upsert))
	assert.Equal(t, models.SyncStatusPending, upsert.Status)
	assert.Equal(t, []int64{upsert.ID}, pendingIDs(t, db))

	t.Run("completed leaves the queue", func(t *testing.T) {
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, upsert.ID, models.SyncStatusCompleted, "", nil))
		assert.Empty(t, pendingIDs(t, db))

		got, err := db.GetSyncTask(ctx, upsert.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.ProcessedAt)
	})

	t.Run("retry waits for its time", func(t *testing.T) {
		task := &models.SyncTask{TaskType: models.SyncTaskStatus, BookingID: 101, Payload: `{}`}
		require.NoError(t, db.CreateSyncTask(ctx, task))

		later := time.Now().Add(time.Hour)
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, "sheets 503", &later))
		assert.NotContains(t, pendingIDs(t, db), task.ID)

		earlier := time.Now().Add(-time.Minute)
		require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, "sheets 503", &earlier))
		assert.Contains(t, pendingIDs(t, db), task.ID)

		got, err := db.GetSyncTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.RetryCount)
		require.NotNil(t, got.LastError)
		assert.Equal(t, "sheets 503", *got.LastError)
	})

	t.Run("failed tasks are listed apart", func(t *testing.T) {
		msg := "quota exceeded"
		dead := &models.SyncTask{TaskType: models.SyncTaskUpsert, BookingID: 102, Status: models.SyncStatusFailed, LastError: &msg}
		require.NoError(t, db.CreateSyncTask(ctx, dead))
		assert.NotContains(t, pendingIDs(t, db), dead.ID)

		failed, err := db.GetFailedSyncTasks(ctx)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, int64(102), failed[0].BookingID)
	})
}

func TestGetSyncTask_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetSyncTask(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
